package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates that the caller presented no valid credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates that the caller is authenticated but lacks the required role.
var ErrForbidden = errors.New("forbidden")

// ErrRefreshTokenExpired indicates that the presented refresh token has passed its expiry.
var ErrRefreshTokenExpired = errors.New("refresh token expired")

// ErrUnbalanced indicates that a transaction's debit and credit totals are not equal.
var ErrUnbalanced = errors.New("transaction entries do not balance")

// ErrInvalidAmount indicates a non-positive amount or one with more than two decimal places.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrInsufficientFunds indicates a wallet debit larger than the customer's wallet balance.
var ErrInsufficientFunds = errors.New("insufficient wallet funds")

// ErrInsufficientStock indicates a stock movement that would take a product quantity negative.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrAlreadyCompleted indicates a state transition attempted on an already completed record.
var ErrAlreadyCompleted = errors.New("already completed")

// ErrInvalidTransition indicates a state transition that the record's current state does not allow.
var ErrInvalidTransition = errors.New("invalid state transition")

// ErrAccountInactive indicates an attempt to post against a deactivated account.
var ErrAccountInactive = errors.New("account is inactive")
