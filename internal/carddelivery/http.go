// Package carddelivery manages delivery layer of cards.
package carddelivery

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cardbank/internal/domain"
	"cardbank/internal/middleware"
	"cardbank/pkg/errorspkg"
	"cardbank/pkg/tokenpkg"
	"cardbank/pkg/web"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Service provides service layer interface needed by card delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package carddelivery
type Service interface {
	Create(ctx context.Context, owner, number, holderName string, expiryDate time.Time, balance decimal.Decimal) (domain.Card, error)
	Get(ctx context.Context, id int32) (domain.Card, error)
	GetOwned(ctx context.Context, id int32, owner string) (domain.Card, error)
	List(ctx context.Context, arg domain.ListCardsParams, pageSize, pageID int32) ([]domain.Card, error)
	SetStatus(ctx context.Context, id int32, status domain.CardStatus) (domain.Card, error)
	Delete(ctx context.Context, id int32) error
}

// Handler facilitates card delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns card handler.
func NewHandler(cs Service) Handler {
	return Handler{service: cs}
}

// expiryDateLayout is the wire format for card expiry dates.
const expiryDateLayout = "2006-01-02"

type cardData struct {
	Card domain.Card `json:"card"`
}

type cardResponse struct {
	Data cardData `json:"data,omitempty"`
}

type cardsData struct {
	Cards []domain.Card `json:"cards"`
}

type cardsResponse struct {
	Data cardsData `json:"data,omitempty"`
}

func bindingErrorMsg(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return web.GetErrorMsg(ve)
	}

	return err.Error()
}

type createRequest struct {
	Owner      string `json:"owner" binding:"required,alphanum"`
	Number     string `json:"number" binding:"required,cardnumber"`
	HolderName string `json:"holder_name" binding:"required"`
	ExpiryDate string `json:"expiry_date" binding:"required"`
	Balance    string `json:"balance"`
}

// Create handles http request to create a card for a user.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	expiryDate, err := time.Parse(expiryDateLayout, req.ExpiryDate)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	balance := decimal.Zero

	if req.Balance != "" {
		balance, err = decimal.NewFromString(req.Balance)
		if err != nil {
			l.Info().Err(err).Send()
			gctx.JSON(http.StatusBadRequest, web.Error(domain.ErrInvalidAmount))

			return
		}

		if balance.IsNegative() {
			gctx.JSON(http.StatusBadRequest, web.Error(domain.ErrInsufficientBalance))

			return
		}
	}

	createdCard, err := h.service.Create(ctx, req.Owner, req.Number, req.HolderName, expiryDate, balance)
	if err != nil {
		switch err {
		case domain.ErrExpiryInPast:
			gctx.JSON(http.StatusBadRequest, web.Error(err))
			return
		case domain.ErrOwnerNotFound:
			gctx.JSON(http.StatusBadRequest, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, cardResponse{Data: cardData{createdCard}})
}

type getRequest struct {
	ID int32 `uri:"id" binding:"required,min=1"`
}

// Get handles http request to get the requester's own card.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req getRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	card, err := h.service.GetOwned(ctx, req.ID, authPayload.Username)
	if err != nil {
		if err == domain.ErrCardNotFound {
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, cardResponse{Data: cardData{card}})
}

// GetAny handles http request to get any user's card (admin surface).
func (h *Handler) GetAny(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req getRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	card, err := h.service.Get(ctx, req.ID)
	if err != nil {
		if err == domain.ErrCardNotFound {
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, cardResponse{Data: cardData{card}})
}

type listRequest struct {
	PageID     int32  `form:"page_id" binding:"required,min=1"`
	PageSize   int32  `form:"page_size" binding:"required,min=1,max=100"`
	Status     string `form:"status" binding:"omitempty,oneof=ACTIVE BLOCKED"`
	HolderName string `form:"holder_name"`
	Last4      string `form:"last4" binding:"omitempty,len=4,number"`
	ExpiryFrom string `form:"expiry_from"`
	ExpiryTo   string `form:"expiry_to"`
}

func (req listRequest) filters() (domain.ListCardsParams, error) {
	arg := domain.ListCardsParams{
		Status:     domain.CardStatus(req.Status),
		HolderName: req.HolderName,
		Last4:      req.Last4,
	}

	if req.ExpiryFrom != "" {
		from, err := time.Parse(expiryDateLayout, req.ExpiryFrom)
		if err != nil {
			return arg, err
		}

		arg.ExpiryFrom = from
	}

	if req.ExpiryTo != "" {
		to, err := time.Parse(expiryDateLayout, req.ExpiryTo)
		if err != nil {
			return arg, err
		}

		arg.ExpiryTo = to
	}

	return arg, nil
}

// List handles http request to list the requester's own cards.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	arg, err := req.filters()
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)
	arg.Owner = authPayload.Username

	cards, err := h.service.List(ctx, arg, req.PageSize, req.PageID)
	if err != nil {
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, cardsResponse{Data: cardsData{cards}})
}

type listAllRequest struct {
	listRequest
	Owner string `form:"owner" binding:"omitempty,alphanum"`
}

// ListAll handles http request to list any user's cards (admin surface).
func (h *Handler) ListAll(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listAllRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	arg, err := req.filters()
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	arg.Owner = req.Owner

	cards, err := h.service.List(ctx, arg, req.PageSize, req.PageID)
	if err != nil {
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, cardsResponse{Data: cardsData{cards}})
}

type setStatusRequest struct {
	Status domain.CardStatus `json:"status" binding:"required,oneof=ACTIVE BLOCKED"`
}

// SetStatus handles http request to update a card's status.
func (h *Handler) SetStatus(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var uri getRequest
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	var req setStatusRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	h.setStatus(gctx, uri.ID, req.Status)
}

// Block handles http request to block a card.
func (h *Handler) Block(gctx *gin.Context) {
	l := zerolog.Ctx(gctx.Request.Context())

	var uri getRequest
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	h.setStatus(gctx, uri.ID, domain.CardStatusBlocked)
}

// Activate handles http request to activate a card.
func (h *Handler) Activate(gctx *gin.Context) {
	l := zerolog.Ctx(gctx.Request.Context())

	var uri getRequest
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	h.setStatus(gctx, uri.ID, domain.CardStatusActive)
}

func (h *Handler) setStatus(gctx *gin.Context, id int32, status domain.CardStatus) {
	ctx := gctx.Request.Context()

	card, err := h.service.SetStatus(ctx, id, status)
	if err != nil {
		if err == domain.ErrCardNotFound {
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, cardResponse{Data: cardData{card}})
}

// Delete handles http request to delete a card.
func (h *Handler) Delete(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req getRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	if err := h.service.Delete(ctx, req.ID); err != nil {
		if err == domain.ErrCardNotFound {
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusNoContent, nil)
}
