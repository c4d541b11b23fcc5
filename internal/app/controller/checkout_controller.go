package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type CheckoutController struct{}

func NewCheckoutController() *CheckoutController {
	return &CheckoutController{}
}

// GetSummary returns the priced order summary of the signed in visitor
// GET /checkout
func (ctrl *CheckoutController) GetSummary(c *gin.Context) {
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}

	summary, err := sf.Checkout.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch cart")
		return
	}

	c.JSON(http.StatusOK, summary)
}
