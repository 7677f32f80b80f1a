package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a pattern and logs instead of failing
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", helper.GetCacheKey(pattern))
	}
}

// SafeDelete deletes keys and logs instead of failing
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateTenantAggregates drops every cached dashboard and report of a
// tenant. Called after a submission or a stage change.
func InvalidateTenantAggregates(ctx context.Context, cm *CacheManager, tenantID uint) {
	SafeInvalidatePattern(ctx, cm.Dashboard, fmt.Sprintf("admin:%d:*", tenantID))
	SafeInvalidatePattern(ctx, cm.Report, fmt.Sprintf("overview:%d:*", tenantID))
	SafeInvalidatePattern(ctx, cm.Report, fmt.Sprintf("student:%d:*", tenantID))
}
