package api

import (
	"net/http"

	"github.com/labstack/echo"

	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/api/resource"
	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/gateway"
	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/storage"
)

func (h *Handler) handleFetchAssets(c echo.Context) error {
	m, err := h.tracker.List()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, resource.NewAssetList(m))
}

func (h *Handler) handleGetAssetByID(c echo.Context) error {
	id := c.Param("id")

	m, err := h.tracker.Get(id)
	if err != nil && err == storage.ErrNotFound {
		return c.JSON(http.StatusNotFound, err)
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, resource.NewAssetDetail(m))
}

func (h *Handler) handleSendMessage(c echo.Context) error {
	id := c.Param("id")

	r := &resource.OutboundMessageResource{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}
	if err := resource.ValidateOutboundMessage(r); err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	err := h.tracker.SendMessage(c.Request().Context(), id, r.Text, r.IsSOS)
	if _, ok := err.(*gateway.Error); ok {
		// The outbound entry is already recorded; the operator learns
		// the delivery attempt failed.
		return c.JSON(http.StatusBadGateway, gatewayErrorResource(err))
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusAccepted, nil)
}

func (h *Handler) handleAcknowledgeSOS(c echo.Context) error {
	id := c.Param("id")

	err := h.tracker.AcknowledgeSOS(c.Request().Context(), id)
	if err != nil && err == storage.ErrNotFound {
		return c.JSON(http.StatusNotFound, err)
	} else if _, ok := err.(*gateway.Error); ok {
		return c.JSON(http.StatusBadGateway, gatewayErrorResource(err))
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusAccepted, nil)
}

func (h *Handler) handleCloseAsset(c echo.Context) error {
	id := c.Param("id")

	err := h.tracker.Close(id)
	if err != nil && err == storage.ErrNotFound {
		return c.JSON(http.StatusNotFound, err)
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, nil)
}

type errorResource struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func gatewayErrorResource(err error) *errorResource {
	out := &errorResource{Error: err.Error()}
	if e, ok := err.(*gateway.Error); ok {
		out.Code = e.Code
	}
	return out
}
