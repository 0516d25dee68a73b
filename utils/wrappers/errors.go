// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wrappers

import "strings"

var _ error = (*aggregate)(nil)

// Errs collects the first error reported to it.
type Errs struct{ Err error }

func (errs *Errs) Errored() bool {
	return errs.Err != nil
}

// Add records the first non-nil error in [errors] if no error has been
// recorded yet.
func (errs *Errs) Add(errors ...error) {
	if errs.Err == nil {
		for _, err := range errors {
			if err != nil {
				errs.Err = err
				break
			}
		}
	}
}

// AllErrs keeps every non-nil error reported to it, so that configuration
// problems can be reported together rather than one per run.
type AllErrs struct {
	errs []error
}

func (a *AllErrs) Add(errors ...error) {
	for _, err := range errors {
		if err != nil {
			a.errs = append(a.errs, err)
		}
	}
}

func (a *AllErrs) Errored() bool {
	return len(a.errs) > 0
}

// Err returns nil if nothing was reported, the single error if only one was
// reported and an aggregate otherwise.
func (a *AllErrs) Err() error {
	switch len(a.errs) {
	case 0:
		return nil
	case 1:
		return a.errs[0]
	default:
		return &aggregate{errs: a.errs}
	}
}

type aggregate struct {
	errs []error
}

func (a *aggregate) Error() string {
	msgs := make([]string, len(a.errs))
	for i, err := range a.errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap allows errors.Is and errors.As to inspect every aggregated error.
func (a *aggregate) Unwrap() []error {
	return a.errs
}
