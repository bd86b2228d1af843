package fingerprint

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/GlebRadaev/dogefaucet/internal/dto"
	"github.com/GlebRadaev/dogefaucet/internal/service/fingerprintservice"
	"github.com/GlebRadaev/dogefaucet/pkg/auth"
	"github.com/GlebRadaev/dogefaucet/pkg/utils"
)

//go:generate mockgen -source=fingerprint.go -destination=mock_fingerprint.go -package=fingerprint

type Service interface {
	Validate(ctx context.Context, c fingerprintservice.Check) (*fingerprintservice.Verdict, error)
}

type FingerprintHandler struct {
	fingerprintService Service
}

func New(fingerprintService Service) *FingerprintHandler {
	return &FingerprintHandler{fingerprintService: fingerprintService}
}

// ClientIP prefers the first X-Forwarded-For entry, then X-Real-IP, then
// the connection address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Validate godoc
//
//	@Summary		Pre-check a device
//	@Description	Public. Rejects devices linked to banned users or to too many accounts. A signed in caller gets the device recorded.
//	@Tags			Fingerprint
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.FingerprintRequestDTO	true	"Device fingerprint"
//	@Success		200		{object}	dto.FingerprintResponseDTO
//	@Failure		400		{object}	utils.Response	"Missing fingerprint"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/fingerprint/validate [post]
func (h *FingerprintHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req dto.FingerprintRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	check := fingerprintservice.Check{
		Fingerprint: req.Fingerprint,
		UserAgent:   req.UserAgent,
		IP:          ClientIP(r),
	}
	if check.UserAgent == "" {
		check.UserAgent = r.UserAgent()
	}
	if caller, ok := auth.CallerFromContext(r.Context()); ok {
		check.UserID = &caller.ID
	}

	verdict, err := h.fingerprintService.Validate(r.Context(), check)
	if err != nil {
		if errors.Is(err, fingerprintservice.ErrMissingFingerprint) {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.FingerprintResponseDTO{
		Success:         verdict.Allowed,
		Banned:          verdict.Banned,
		TooManyAccounts: verdict.TooManyAccounts,
	})
}
