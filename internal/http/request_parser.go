// Package http provides the JSON API server and its handlers.
//
// This file parses and validates query parameters. Handlers receive typed
// parameter structs and never read url.Values directly.

package http

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrBadRequest marks query parameters that fail parsing or validation.
var ErrBadRequest = errors.New("bad request")

// BudgetParams holds the /budget query.
type BudgetParams struct {
	Month string `validate:"omitempty,max=16,printascii"`
	Year  int    `validate:"omitempty,min=2000,max=2999"`
}

// SheetParams holds the /sheets query. Month may be a label ("Oct/25"), a
// display string ("Oct 2025") or a raw header ("Oct-25").
type SheetParams struct {
	Month string `validate:"omitempty,max=32,printascii"`
}

// EarningsParams holds the /earnings query.
type EarningsParams struct {
	Year int `validate:"omitempty,min=2000,max=2999"`
}

// RequestParser validates query parameters with go-playground/validator.
type RequestParser struct {
	validate *validator.Validate
}

func NewRequestParser() *RequestParser {
	return &RequestParser{validate: validator.New()}
}

// Budget parses month and year.
func (p *RequestParser) Budget(query url.Values) (BudgetParams, error) {
	year, err := parseYear(query)
	if err != nil {
		return BudgetParams{}, err
	}
	params := BudgetParams{
		Month: strings.TrimSpace(query.Get("month")),
		Year:  year,
	}
	return params, p.check(params)
}

// Sheet parses month.
func (p *RequestParser) Sheet(query url.Values) (SheetParams, error) {
	params := SheetParams{Month: strings.TrimSpace(query.Get("month"))}
	return params, p.check(params)
}

// Earnings parses year.
func (p *RequestParser) Earnings(query url.Values) (EarningsParams, error) {
	year, err := parseYear(query)
	if err != nil {
		return EarningsParams{}, err
	}
	params := EarningsParams{Year: year}
	return params, p.check(params)
}

// parseYear returns 0 when year is absent.
func parseYear(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("year"))
	if v == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: year must be a number", ErrBadRequest)
	}
	return year, nil
}

func (p *RequestParser) check(params any) error {
	err := p.validate.Struct(params)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Errorf("%w: invalid %s (%s)", ErrBadRequest, strings.ToLower(fe.Field()), fe.Tag())
	}
	return fmt.Errorf("%w: %v", ErrBadRequest, err)
}
