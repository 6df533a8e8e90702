package middleware

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/pumpwatch/internal/model"
)

// Input limits.
const (
	MaxStreamIDLen   = 64
	MaxSearchTermLen = 100 // runes
)

// streamIDRe matches upstream ids: mint addresses, UUIDs, numeric ids.
var streamIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateStreamID checks that a stream id is well-formed.
func ValidateStreamID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "stream id is required"
	}
	if len(id) > MaxStreamIDLen {
		return "", "stream id must be at most 64 characters"
	}
	if !streamIDRe.MatchString(id) {
		return "", "stream id contains invalid characters"
	}
	return id, ""
}

// ValidateSearchTerm strips control characters and enforces the length
// limit. Surrounding whitespace is kept; it is part of the substring match.
func ValidateSearchTerm(term string) (string, string) {
	if !utf8.ValidString(term) {
		return "", "search term must be valid UTF-8"
	}
	term = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, term)
	if utf8.RuneCountInString(term) > MaxSearchTermLen {
		return "", "search term must be at most 100 characters"
	}
	return term, ""
}

// ValidateFilter parses a category filter.
func ValidateFilter(s string) (model.Filter, string) {
	f, ok := model.ParseFilter(s)
	if !ok {
		return "", "filter must be one of: all, trending, new"
	}
	return f, ""
}

// ValidatePage parses a 1-based page number. Empty means page 1.
func ValidatePage(s string) (int, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1, ""
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, "page must be a positive integer"
	}
	return n, ""
}
