package shopify

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cardaverse-ai/cardaverse-customcard/core"
	"github.com/cardaverse-ai/cardaverse-customcard/fulfillment"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	OrderResponse struct {
		Message string `json:"message"`
		TaskID  string `json:"task_id,omitempty"`
		Items   int    `json:"items,omitempty"`
	}

	OrderDispatcher interface {
		Dispatch(ctx context.Context, order core.Order) (fulfillment.Ack, error)
	}
)

// HandleOrderPaid acknowledges a paid order and hands its card line items to the
// dispatcher. Processing failures never change the response.
func HandleOrderPaid(dispatcher OrderDispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var order core.Order
		if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
			logrus.WithError(err).Warn("Failed to decode order payload")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid order payload"})
			return
		}
		log := logrus.WithField("order_number", order.OrderNumber.String())

		ack, err := dispatcher.Dispatch(r.Context(), order)
		if err != nil {
			log.WithError(err).Error("Failed to dispatch order")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, map[string]string{"error": "Service is shutting down"})
			return
		}

		if ack.Accepted == 0 {
			log.Info("Order contains no custom cards, skipping")
			render.JSON(w, r, OrderResponse{Message: "No custom cards in order"})
			return
		}

		log.WithFields(logrus.Fields{"task_id": ack.TaskID, "items": ack.Accepted}).Info("Order accepted")
		render.JSON(w, r, OrderResponse{Message: "Order accepted", TaskID: ack.TaskID, Items: ack.Accepted})
	}
}
