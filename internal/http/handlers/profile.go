package handlers

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ArnavJain-cy/sih-app/internal/account"
	"github.com/ArnavJain-cy/sih-app/internal/actorctx"
	"github.com/ArnavJain-cy/sih-app/internal/auth"
	"github.com/ArnavJain-cy/sih-app/internal/domain/user"
	"github.com/ArnavJain-cy/sih-app/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/xeipuuv/gojsonschema"
)

const MsgProfileUpdated = "Profile updated successfully"

//go:embed schemas/profile_update.schema.json
var profileUpdateSchema []byte

type ProfileService interface {
	GetProfile(ctx context.Context, id auth.Identity) (user.User, error)
	UpdateProfile(ctx context.Context, id auth.Identity, in account.ProfileUpdate) (user.User, error)
}

type ProfileHandler struct {
	svc    ProfileService
	schema *gojsonschema.Schema
}

func NewProfileHandler(svc ProfileService) (*ProfileHandler, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(profileUpdateSchema))
	if err != nil {
		return nil, fmt.Errorf("load profile schema: %w", err)
	}
	return &ProfileHandler{svc: svc, schema: schema}, nil
}

type UpdateProfileRequest struct {
	Profile  *user.Profile  `json:"profile"`
	Progress *user.Progress `json:"progress"`
}

func (h *ProfileHandler) Get(ctx *gin.Context) {
	id, ok := actorctx.IdentityFrom(ctx.Request.Context())
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", middlewares.MsgTokenRequired, nil)
		return
	}

	u, err := h.svc.GetProfile(ctx.Request.Context(), id)
	if err != nil {
		RespondServiceError(ctx, err, "Internal server error")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *ProfileHandler) Update(ctx *gin.Context) {
	id, ok := actorctx.IdentityFrom(ctx.Request.Context())
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", middlewares.MsgTokenRequired, nil)
		return
	}

	req, ok := h.decodeUpdate(ctx)
	if !ok {
		return
	}

	u, err := h.svc.UpdateProfile(ctx.Request.Context(), id, account.ProfileUpdate{
		Profile:  req.Profile,
		Progress: req.Progress,
	})
	if err != nil {
		RespondServiceError(ctx, err, "Internal server error")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": MsgProfileUpdated,
		"user":    u,
	})
}

// decodeUpdate checks the raw body against the profile schema before
// decoding, so type errors are reported per field.
func (h *ProfileHandler) decodeUpdate(ctx *gin.Context) (UpdateProfileRequest, bool) {
	var req UpdateProfileRequest

	raw, err := ctx.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large", nil)
			return req, false
		}
		RespondBadRequest(ctx, MsgInvalidBody, gin.H{"reason": err.Error()})
		return req, false
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	res, err := h.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		RespondBadRequest(ctx, MsgInvalidBody, gin.H{"json": "invalid_json_syntax"})
		return req, false
	}
	if !res.Valid() {
		fields := make([]FieldError, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			fields = append(fields, FieldError{
				Field:   e.Field(),
				Rule:    e.Type(),
				Message: e.Description(),
			})
		}
		RespondBadRequest(ctx, MsgInvalidBody, gin.H{"fields": fields})
		return req, false
	}

	if err := json.Unmarshal(raw, &req); err != nil {
		RespondBadRequest(ctx, MsgInvalidBody, parseBindError(err, &req))
		return req, false
	}
	return req, true
}
