package models

// PurchaseRequest is the body of POST /comprar/{id}
type PurchaseRequest struct {
	Cantidad int `json:"cantidad"`
}

// PurchaseResponse carries the id of the order created by the backend
type PurchaseResponse struct {
	ID int64 `json:"id"`
}
