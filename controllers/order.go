package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"coffeelink/apiclient"
	"coffeelink/cart"
	"coffeelink/utils"

	"go.uber.org/zap"
)

// receiptTimeout bounds one confirmation email
const receiptTimeout = 15 * time.Second

// OrderController buys single units from the catalog
type OrderController struct {
	api    *apiclient.Client
	mailer utils.Mailer
	log    *zap.Logger

	receipts sync.WaitGroup
}

// NewOrderController creates a new OrderController
func NewOrderController(api *apiclient.Client, mailer utils.Mailer, log *zap.Logger) *OrderController {
	if mailer == nil {
		mailer = utils.NoopMailer{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderController{api: api, mailer: mailer, log: log}
}

// Purchase orders one unit of the product. Insufficient stock and rejected
// sessions become notifications; the latter also ends the session.
func (oc *OrderController) Purchase(w http.ResponseWriter, r *http.Request) {
	c, ok := currentClient(w, r)
	if !ok {
		return
	}
	id, ok := productID(r)
	if !ok {
		c.Flash.Add(cart.LevelError, msgBadRequest)
		redirect(w, r, "/catalogo")
		return
	}
	// Unknown is not anonymous: the stored session may still be loading.
	if c.Session.IsLoading() {
		c.Flash.Add(cart.LevelInfo, msgSessionLoading)
		redirect(w, r, "/catalogo")
		return
	}
	user, loggedIn := c.Session.CurrentUser()
	if !loggedIn {
		c.Flash.Add(cart.LevelWarning, "Debes iniciar sesión para comprar.")
		redirect(w, r, "/login")
		return
	}

	release, ok := c.InFlight.TryAcquire("comprar:" + strconv.FormatInt(id, 10))
	if !ok {
		c.Flash.Add(cart.LevelInfo, "Tu compra de este producto ya está en proceso.")
		redirect(w, r, "/catalogo")
		return
	}
	defer release()

	order, err := backendFor(oc.api, c).Purchase(r.Context(), id, 1)
	if err != nil {
		oc.log.Info("purchase failed", zap.Int64("product", id), zap.Error(err))
		switch apiclient.KindOf(err) {
		case apiclient.KindConflict:
			c.Flash.Add(cart.LevelError, "Error: ¡No hay stock suficiente de este producto!")
		case apiclient.KindAuth:
			rejectSession(w, r, c, msgSessionRejected)
			return
		default:
			c.Flash.Add(cart.LevelError, "Ocurrió un error inesperado al comprar.")
		}
		redirect(w, r, "/catalogo")
		return
	}

	c.Flash.Add(cart.LevelSuccess, fmt.Sprintf("¡Compra exitosa! Pedido creado: Nro %d", order.ID))

	receipt := utils.Receipt{OrderID: order.ID, Quantity: 1}
	if p, ok := c.Product(id); ok {
		receipt.ProductName = p.Nombre
		receipt.UnitPrice = p.Precio
	}
	oc.sendReceipt(context.WithoutCancel(r.Context()), user.Email, receipt)

	redirect(w, r, "/catalogo")
}

// sendReceipt mails the confirmation in the background
func (oc *OrderController) sendReceipt(ctx context.Context, email string, receipt utils.Receipt) {
	oc.receipts.Add(1)
	go func() {
		defer oc.receipts.Done()
		ctx, cancel := context.WithTimeout(ctx, receiptTimeout)
		defer cancel()
		if err := oc.mailer.SendOrderConfirmation(ctx, email, receipt); err != nil {
			oc.log.Warn("failed to send order confirmation", zap.String("email", email), zap.Int64("order", receipt.OrderID), zap.Error(err))
		}
	}()
}

// Wait blocks until pending confirmation emails are sent
func (oc *OrderController) Wait() {
	oc.receipts.Wait()
}
