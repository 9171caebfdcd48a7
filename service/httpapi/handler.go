package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/viant/moderation/model"
)

// DeviceHeader carries the caller's device id for identity autofill.
const DeviceHeader = "X-Device-ID"

type handler struct {
	server *Server
}

// SubmitRequest is the body of POST /actions.
type SubmitRequest struct {
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Requester model.Requester `json:"requester"`
}

// SubmitResponse reports either the queued item or the issued challenge.
type SubmitResponse struct {
	Status      string      `json:"status"`
	Item        *model.Item `json:"item,omitempty"`
	ChallengeID string      `json:"challengeId,omitempty"`
	ExpiresAt   *time.Time  `json:"expiresAt,omitempty"`
}

const (
	statusQueued               = "queued"
	statusVerificationRequired = "verification_required"
)

func (h *handler) submit(c *gin.Context) {
	var request SubmitRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		abort(c, model.NewValidationError("body", "malformed request"))
		return
	}
	kind, err := model.ParseKind(request.Kind)
	if err != nil {
		abort(c, err)
		return
	}
	payload, err := model.DecodePayload(kind, request.Payload)
	if err != nil {
		abort(c, err)
		return
	}
	receipt, err := h.server.moderator.Submit(c.Request.Context(), request.Requester, payload)
	if err != nil {
		abort(c, err)
		return
	}
	if memory := h.server.identity; memory != nil {
		memory.Remember(c.GetHeader(DeviceHeader), request.Requester)
	}
	if receipt.Pending() {
		handle := receipt.Flow.Handle()
		c.JSON(http.StatusAccepted, SubmitResponse{
			Status:      statusVerificationRequired,
			ChallengeID: handle.ChallengeID,
			ExpiresAt:   &handle.ExpiresAt,
		})
		return
	}
	c.JSON(http.StatusCreated, SubmitResponse{Status: statusQueued, Item: receipt.Item})
}

type verifyRequest struct {
	Code string `json:"code"`
}

func (h *handler) verify(c *gin.Context) {
	var request verifyRequest
	if err := c.ShouldBindJSON(&request); err != nil || request.Code == "" {
		abort(c, model.NewValidationError("code", "is required"))
		return
	}
	item, err := h.server.moderator.Verify(c.Request.Context(), c.Param("id"), request.Code)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, SubmitResponse{Status: statusQueued, Item: item})
}

func (h *handler) resend(c *gin.Context) {
	handle, err := h.server.moderator.Resend(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusAccepted, SubmitResponse{
		Status:      statusVerificationRequired,
		ChallengeID: handle.ChallengeID,
		ExpiresAt:   &handle.ExpiresAt,
	})
}

func (h *handler) pending(c *gin.Context) {
	h.list(c, model.StatusPending)
}

func (h *handler) items(c *gin.Context) {
	status := model.Status(c.Query("status"))
	switch status {
	case "", model.StatusPending, model.StatusApproved, model.StatusDenied:
	default:
		abort(c, model.NewValidationError("status", "unsupported status"))
		return
	}
	h.list(c, status)
}

func (h *handler) list(c *gin.Context, status model.Status) {
	var kind model.ActionKind
	if raw := c.Query("kind"); raw != "" {
		parsed, err := model.ParseKind(raw)
		if err != nil {
			abort(c, err)
			return
		}
		kind = parsed
	}
	items, err := h.server.moderator.List(c.Request.Context(), status, kind)
	if err != nil {
		abort(c, err)
		return
	}
	if items == nil {
		items = []*model.Item{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *handler) item(c *gin.Context) {
	item, err := h.server.moderator.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *handler) approve(c *gin.Context) {
	decision, err := h.server.moderator.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

type denyRequest struct {
	Reason string `json:"reason"`
}

func (h *handler) deny(c *gin.Context) {
	var request denyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		abort(c, model.NewValidationError("reason", "a reason is required to deny a request"))
		return
	}
	decision, err := h.server.moderator.Deny(c.Request.Context(), c.Param("id"), request.Reason)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

func (h *handler) recall(c *gin.Context) {
	requester, ok := h.server.identity.Recall(c.Param("device"))
	if !ok {
		abort(c, model.NewNotFoundError("identity", c.Param("device")))
		return
	}
	c.JSON(http.StatusOK, requester)
}

func (h *handler) remember(c *gin.Context) {
	var requester model.Requester
	if err := c.ShouldBindJSON(&requester); err != nil {
		abort(c, model.NewValidationError("body", "malformed request"))
		return
	}
	if err := model.ValidateRequester(requester, false); err != nil {
		abort(c, err)
		return
	}
	h.server.identity.Remember(c.Param("device"), requester)
	c.Status(http.StatusNoContent)
}
