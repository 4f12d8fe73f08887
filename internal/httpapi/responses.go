package httpapi

import (
	"errors"
	"net/http"

	"opsconsole/internal/workitem"

	"github.com/gin-gonic/gin"
)

// Response envelope. Lists carry paging meta; everything else is data-only.
// Errors use {success:false, error:{code,message}} so the console can switch
// on code without parsing messages.

type listMeta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondList(c *gin.Context, data any, meta listMeta) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data, "meta": meta})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   gin.H{"code": code, "message": message},
	})
}

// respondDomainError maps service errors onto HTTP statuses. TransitionError
// carries the domain condition; sentinel errors cover lookups and storage.
func respondDomainError(c *gin.Context, err error) {
	var te *workitem.TransitionError
	if errors.As(err, &te) {
		respondError(c, transitionStatus(te.Kind), string(te.Kind), te.Message)
		return
	}
	switch {
	case errors.Is(err, workitem.ErrNotFound):
		respondError(c, http.StatusNotFound, "not_found", "work item not found")
	case errors.Is(err, workitem.ErrInvalidRequest):
		respondError(c, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, workitem.ErrStoreUnavailable):
		respondError(c, http.StatusServiceUnavailable, "store_unavailable", "storage unavailable, retry later")
	default:
		respondError(c, http.StatusInternalServerError, "internal", "internal error")
	}
}

func transitionStatus(kind workitem.ErrorKind) int {
	switch kind {
	case workitem.ErrKindNotFound:
		return http.StatusNotFound
	case workitem.ErrKindValidationFailed:
		return http.StatusUnprocessableEntity
	case workitem.ErrKindAlreadyTerminal, workitem.ErrKindVersionConflict:
		return http.StatusConflict
	case workitem.ErrKindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
