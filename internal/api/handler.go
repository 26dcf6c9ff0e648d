package api

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/gin-gonic/gin"
	"github.com/id-Mask/smart-contracts/internal/claims"
	"github.com/id-Mask/smart-contracts/internal/metrics"
	"github.com/id-Mask/smart-contracts/internal/verifier"
	"github.com/id-Mask/smart-contracts/internal/zkp"
	"github.com/id-Mask/smart-contracts/pkg/reasoncodes"
	"github.com/id-Mask/smart-contracts/pkg/rest"
)

const SenderHeader = "X-Sender"

type ProofVerifier interface {
	VerifyProof(ctx context.Context, sender string, proof zkp.ProofJSON) (verifier.Event, error)
}

// EventStore is satisfied by *verifier.MemoryLedger and *verifier.EventRepository.
type EventStore interface {
	ListEvents(ctx context.Context, circuitID claims.CircuitID) ([]verifier.Event, error)
}

type KeyResolver interface {
	VerifyingKey(ctx context.Context, id claims.CircuitID) (groth16.VerifyingKey, error)
}

type Handler struct {
	Verifier ProofVerifier
	Events   EventStore
	Keys     KeyResolver
	Metrics  *metrics.Metrics
}

func (h *Handler) Routes() []rest.Route {
	return []rest.Route{
		rest.NewRoute(rest.POST, "proofs", "/verify", h.VerifyProof),
		rest.NewRoute(rest.GET, "proofs", "/events", h.ListEvents),
		rest.NewRoute(rest.GET, "circuits", "", h.ListCircuits),
		rest.NewRoute(rest.GET, "circuits", "/:id/verifying-key", h.GetVerifyingKey),
		rest.NewRoute(rest.GET, "", "/metrics", gin.WrapH(h.Metrics.Handler())),
	}
}

// VerifyProof records a provided-valid-proof event for a proof that checks
// out against the server side key. X-Sender names the submitting account.
func (h *Handler) VerifyProof(c *gin.Context) {
	var proof zkp.ProofJSON
	if err := c.ShouldBindJSON(&proof); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":       "Invalid request: " + err.Error(),
			"reason_code": reasoncodes.ErrUnmarshal,
		})
		return
	}

	sender := c.GetHeader(SenderHeader)
	if sender == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":       "Invalid request: " + SenderHeader + " header is empty",
			"reason_code": reasoncodes.ErrMalformedInput,
		})
		return
	}

	event, err := h.Verifier.VerifyProof(c.Request.Context(), sender, proof)
	if err != nil {
		code := reasoncodes.CodeOf(err, reasoncodes.ErrProofVerification)
		c.JSON(statusFor(err, code), gin.H{
			"error":       err.Error(),
			"reason_code": code,
		})
		return
	}

	c.JSON(http.StatusOK, event)
}

// ListEvents accepts an optional ?circuit= filter.
func (h *Handler) ListEvents(c *gin.Context) {
	var circuit claims.CircuitID
	if q := c.Query("circuit"); q != "" {
		id, err := claims.ParseCircuitID(q)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":       err.Error(),
				"reason_code": reasoncodes.CodeOf(err, reasoncodes.ErrUnsupportedCircuit),
			})
			return
		}
		circuit = id
	}

	events, err := h.Events.ListEvents(c.Request.Context(), circuit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":       "Could not list events: " + err.Error(),
			"reason_code": reasoncodes.ErrLedger,
		})
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handler) ListCircuits(c *gin.Context) {
	out := make([]gin.H, 0)
	for _, id := range claims.IDs() {
		def, _ := claims.Lookup(id)
		out = append(out, gin.H{"id": id, "nbPublicInputs": def.NbPublicInputs, "outputLength": claims.OutputLength})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetVerifyingKey(c *gin.Context) {
	id, err := claims.ParseCircuitID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "reason_code": reasoncodes.ErrUnsupportedCircuit})
		return
	}

	vk, err := h.Keys.VerifyingKey(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not resolve verifying key: " + err.Error()})
		return
	}

	raw, err := zkp.VerifyingKeyBytes(vk)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not encode verifying key: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"circuitId":    id,
		"verifyingKey": base64.StdEncoding.EncodeToString(raw),
	})
}

// statusFor maps verification failures to 422 and infrastructure failures to 5xx.
func statusFor(err error, code reasoncodes.ReasonCode) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case code == reasoncodes.ErrLedger, code == reasoncodes.ErrVerifierResolution:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}
