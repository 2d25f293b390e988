package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"catalog-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const codeInternal = "INTERNAL_ERROR"

// statusByKind maps each error kind to its HTTP status
var statusByKind = []struct {
	kind   error
	status int
}{
	{services.ErrValidation, http.StatusBadRequest},
	{services.ErrNotFound, http.StatusNotFound},
	{services.ErrDepthExceeded, http.StatusUnprocessableEntity},
	{services.ErrInvalidCategoryPath, http.StatusUnprocessableEntity},
	{services.ErrDuplicateVariant, http.StatusConflict},
	{services.ErrHasDependents, http.StatusConflict},
}

var registerOnce sync.Once

// RegisterValidators lets binding tags such as gte=0 apply to decimal fields
func RegisterValidators() {
	registerOnce.Do(registerDecimalType)
}

func registerDecimalType() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: data, Message: message})
}

func respondMessage(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: data, Message: message})
}

func respondError(c *gin.Context, status int, body models.Error) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Success: false,
		Message: body.Message,
		Error:   body,
	})
}

// handleError renders a service error. Unknown errors are logged and hidden behind INTERNAL_ERROR.
func handleError(c *gin.Context, logger *logrus.Entry, err error) {
	if ce, ok := services.AsCatalogError(err); ok {
		status := http.StatusBadRequest
		for _, entry := range statusByKind {
			if errors.Is(ce.Kind, entry.kind) {
				status = entry.status
				break
			}
		}
		respondError(c, status, models.Error{
			Code:    ce.Code,
			Message: ce.Message,
			Field:   ce.Field,
			Details: ce.Details,
		})
		return
	}

	logger.WithError(err).WithFields(logrus.Fields{
		"path":       c.Request.URL.Path,
		"tenant_id":  middleware.GetTenantID(c),
		"request_id": c.GetString("request_id"),
	}).Error("Request failed")
	_ = c.Error(err)
	respondError(c, http.StatusInternalServerError, models.Error{
		Code:    codeInternal,
		Message: "An unexpected error occurred",
	})
}

// handleBindError converts gin/validator bind failures to field-level validation errors
func handleBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		details := make(map[string]string, len(verrs))
		for _, e := range verrs {
			details[jsonFieldName(e.Field())] = e.Tag()
		}
		respondError(c, http.StatusBadRequest, models.Error{
			Code:    services.CodeValidation,
			Message: fieldMessage(fe),
			Field:   jsonFieldName(fe.Field()),
			Details: details,
		})
		return
	}
	respondError(c, http.StatusBadRequest, models.Error{
		Code:    services.CodeValidation,
		Message: "Invalid request: " + err.Error(),
	})
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", name, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}

// jsonFieldName lowers the first letter of a Go field name
func jsonFieldName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

// tenantID reads the tenant set by TenantMiddleware
func tenantID(c *gin.Context) (string, bool) {
	id := middleware.GetTenantID(c)
	if id == "" {
		respondError(c, http.StatusUnauthorized, models.Error{
			Code:    "TENANT_REQUIRED",
			Message: "Tenant context is required for this operation",
		})
		return "", false
	}
	return id, true
}

// requestContext carries the acting user into service calls
func requestContext(c *gin.Context) context.Context {
	return services.WithActor(c.Request.Context(), middleware.GetUserID(c))
}

func pathID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		respondInvalidID(c, param)
		return uuid.Nil, false
	}
	return id, true
}

func respondInvalidID(c *gin.Context, field string) {
	respondError(c, http.StatusBadRequest, models.Error{
		Code:    services.CodeValidation,
		Message: "Invalid ID format",
		Field:   field,
	})
}
