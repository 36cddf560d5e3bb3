package middleware

import (
	"context"

	"github.com/pontodigital/pdv-backend/pkg/enums"
)

type contextKey string

const (
	ctxOperatorID  contextKey = "operator_id"
	ctxAccountType contextKey = "account_type"
	ctxSellerID    contextKey = "seller_id"
	ctxTerminalID  contextKey = "terminal_id"
)

func OperatorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxOperatorID).(string); ok {
		return v
	}
	return ""
}

func AccountTypeFromContext(ctx context.Context) enums.AccountType {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccountType).(enums.AccountType); ok {
		return v
	}
	return ""
}

func SellerIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSellerID).(string); ok {
		return v
	}
	return ""
}

func TerminalIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxTerminalID).(string); ok {
		return v
	}
	return ""
}

func withSellerID(ctx context.Context, sellerID string) context.Context {
	return context.WithValue(ctx, ctxSellerID, sellerID)
}

// WithOperatorID injects the operator identifier into the context.
func WithOperatorID(ctx context.Context, operatorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxOperatorID, operatorID)
}

// WithAccountType injects the account type into the context for downstream handlers.
func WithAccountType(ctx context.Context, accountType enums.AccountType) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccountType, accountType)
}

// WithTerminalID injects the terminal identifier into the context.
func WithTerminalID(ctx context.Context, terminalID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxTerminalID, terminalID)
}
