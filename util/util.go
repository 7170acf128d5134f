package util

import (
	"context"

	"github.com/gin-gonic/gin"
)

const GinContextKey string = "GinContextKey"

// GinContextFromContext retrieves a gin.Context previously stored in the
// request context via middleware, or panics if one is not present
func GinContextFromContext(ctx context.Context) *gin.Context {
	// If the context is already a gin context, return it
	if gc, ok := ctx.(*gin.Context); ok {
		return gc
	}

	gc, ok := ctx.Value(GinContextKey).(*gin.Context)
	if !ok {
		panic("gin.Context not found in request context")
	}

	return gc
}

// Map applies a function to each element of a slice, returning a new slice
func Map[T, U any](xs []T, f func(T) (U, error)) ([]U, error) {
	result := make([]U, len(xs))
	for i, x := range xs {
		it, err := f(x)
		if err != nil {
			return nil, err
		}
		result[i] = it
	}
	return result, nil
}

// Contains checks whether an item exists in a slice
func Contains[T comparable](s []T, item T) bool {
	for _, v := range s {
		if v == item {
			return true
		}
	}
	return false
}
