// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

package errutil_test

import (
	"errors"
	"testing"

	"github.com/samber/oops"

	"github.com/gymtracker/gymtracker/pkg/errutil"
)

var errSentinel = errors.New("sentinel")

func TestAssertErrorCode_InnermostCode(t *testing.T) {
	inner := oops.Code("USER_SCAN_FAILED").Errorf("scan")
	err := oops.Code("USER_GET_BY_ID_FAILED").Wrap(inner)

	errutil.AssertErrorCode(t, err, "USER_SCAN_FAILED")
}

func TestAssertErrorContext_AnyLayer(t *testing.T) {
	inner := oops.With("email", "ana@example.com").Errorf("lookup")
	err := oops.With("operation", "login").Wrap(inner)

	errutil.AssertErrorContext(t, err, "email", "ana@example.com")
	errutil.AssertErrorContext(t, err, "operation", "login")
}

func TestAssertErrorKind(t *testing.T) {
	err := oops.Code("CREDENTIAL_PERSISTENCE_FAILED").Wrap(errSentinel)

	errutil.AssertErrorKind(t, err, errSentinel, "CREDENTIAL_PERSISTENCE_FAILED")
}
