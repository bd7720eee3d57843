// Package transferdelivery manages delivery layer of transfers.
package transferdelivery

import (
	"context"
	"errors"
	"net/http"

	"cardbank/internal/domain"
	"cardbank/internal/middleware"
	"cardbank/pkg/errorspkg"
	"cardbank/pkg/tokenpkg"
	"cardbank/pkg/web"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Service provides service layer interface needed by transfer delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transferdelivery
type Service interface {
	Transfer(ctx context.Context, owner string, fromCardID, toCardID int32, amount, description string) (domain.TransferTxResult, error)
	ListForCard(ctx context.Context, owner string, cardID, pageSize, pageID int32) ([]domain.Transfer, error)
}

// Handler facilitates transfer delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns transfer handler.
func NewHandler(ts Service) *Handler {
	return &Handler{
		service: ts,
	}
}

func bindingErrorMsg(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return web.GetErrorMsg(ve)
	}

	return err.Error()
}

type createRequest struct {
	FromCardID  int32  `json:"from_card_id" binding:"required,min=1"`
	ToCardID    int32  `json:"to_card_id" binding:"required,min=1"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description" binding:"omitempty,max=255"`
}

type transferData struct {
	Transfer domain.TransferTxResult `json:"transfer"`
}

type transferResponse struct {
	Data transferData `json:"data,omitempty"`
}

// Create handles http request to transfer between two of the requester's cards.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	result, err := h.service.Transfer(ctx, authPayload.Username, req.FromCardID, req.ToCardID, req.Amount, req.Description)
	if err != nil {
		l.Info().Err(err).Send()

		switch err {
		case domain.ErrCardNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))

			return
		case
			domain.ErrSameCardTransfer,
			domain.ErrInvalidAmount,
			domain.ErrNegativeAmount,
			domain.ErrCardNotActive,
			domain.ErrCardExpired,
			domain.ErrInsufficientBalance:
			gctx.JSON(http.StatusBadRequest, web.Error(err))

			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	res := transferResponse{
		Data: transferData{result},
	}

	gctx.JSON(http.StatusOK, res)
}

type listRequest struct {
	CardID   int32 `form:"card_id" binding:"required,min=1"`
	PageID   int32 `form:"page_id" binding:"required,min=1"`
	PageSize int32 `form:"page_size" binding:"required,min=1,max=100"`
}

type transfersData struct {
	Transfers []domain.Transfer `json:"transfers"`
}

type transfersResponse struct {
	Data transfersData `json:"data,omitempty"`
}

// List handles http request to list a card's transfer history.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	transfers, err := h.service.ListForCard(ctx, authPayload.Username, req.CardID, req.PageSize, req.PageID)
	if err != nil {
		if err == domain.ErrCardNotFound {
			gctx.JSON(http.StatusNotFound, web.Error(err))

			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	res := transfersResponse{
		Data: transfersData{transfers},
	}

	gctx.JSON(http.StatusOK, res)
}
