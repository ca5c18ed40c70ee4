package errorhandler

import (
	"errors"
	"fmt"
	"net"

	"HibernateBot/logger"

	"github.com/bwmarrin/discordgo"
	"gorm.io/gorm"
)

type ErrorCategory int

const (
	TransientError ErrorCategory = iota
	PermissionError
	NotFoundError
	StorageError
	ValidationError
	UnknownError
)

type CustomError struct {
	Category     ErrorCategory
	OriginalErr  error
	UserMessage  string
	AdminMessage string
}

func (e *CustomError) Error() string {
	return e.OriginalErr.Error()
}

func (e *CustomError) Unwrap() error {
	return e.OriginalErr
}

func NewError(category ErrorCategory, err error, context string, userMsg string) *CustomError {
	return &CustomError{
		Category:     category,
		OriginalErr:  err,
		UserMessage:  userMsg,
		AdminMessage: fmt.Sprintf("%s: %v", context, err),
	}
}

func NewTransientError(err error, context string) *CustomError {
	return NewError(
		TransientError,
		err,
		fmt.Sprintf("Transient error: %s", context),
		"We're having trouble reaching Discord right now. Please try again later.",
	)
}

func NewPermissionError(err error, context string) *CustomError {
	return NewError(
		PermissionError,
		err,
		fmt.Sprintf("Permission error: %s", context),
		"The bot is missing the permissions needed for this action.",
	)
}

func NewStorageError(err error, context string) *CustomError {
	return NewError(
		StorageError,
		err,
		fmt.Sprintf("Storage error: %s", context),
		"We're experiencing database issues. Please try again later.",
	)
}

func NewValidationError(err error, field string) *CustomError {
	return NewError(
		ValidationError,
		err,
		fmt.Sprintf("Validation error: %s", field),
		fmt.Sprintf("The %s you provided is not valid. Please check and try again.", field),
	)
}

// HandleError logs err and returns a message suitable for showing the
// invoking user.
func HandleError(err error) string {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		logger.Log.WithError(customErr.OriginalErr).
			WithField("category", customErr.Category).
			Error(customErr.AdminMessage)
		return customErr.UserMessage
	}

	logger.Log.WithError(err).Error("Unexpected error occurred")
	return "An unexpected error occurred. Please try again later."
}

// IsNotFound reports whether err means the target no longer exists on the
// platform or in the store: a member who left, a message already deleted,
// or a ledger row that was never written. Callers treat these as benign.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Category == NotFoundError
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownChannel,
			discordgo.ErrCodeUnknownMember,
			discordgo.ErrCodeUnknownMessage,
			discordgo.ErrCodeUnknownUser,
			discordgo.ErrCodeUnknownRole:
			return true
		}
	}
	return false
}

// IsPermission reports whether err is a Discord permission failure. These
// are not retried within a pass; the next scheduled pass retries them.
func IsPermission(err error) bool {
	if err == nil {
		return false
	}
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Category == PermissionError
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
			return true
		}
	}
	return false
}

// IsTransient reports whether err looks like a connectivity or rate-limit
// problem that skipping the current unit of work will route around.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Category == TransientError
	}
	var rateErr *discordgo.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode >= 500
	}
	return false
}
