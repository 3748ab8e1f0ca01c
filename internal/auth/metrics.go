// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation labels for credential metrics.
const (
	OpRegister        = "register"
	OpLogin           = "login"
	OpRequestRecovery = "request_recovery"
	OpChangePassword  = "change_password"
	OpAuthenticate    = "authenticate"
)

// Outcome labels for credential metrics.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

const (
	hashOpDerive = "hash"
	hashOpVerify = "verify"
)

// CredentialOperations counts service operations by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var CredentialOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gymtracker_credential_operations_total",
		Help: "Total number of credential operations by outcome",
	},
	[]string{"operation", "outcome"},
)

// PasswordHashDuration observes the cost of argon2id derivations.
// Use RegisterMetrics to register this with a Prometheus registry.
var PasswordHashDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "gymtracker_password_hash_duration_seconds",
		Help:    "Password hash derivation duration in seconds",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	},
	[]string{"operation"},
)

// RegisterMetrics registers auth package metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(CredentialOperations)
	reg.MustRegister(PasswordHashDuration)
}

// RecordOperation increments the operation counter.
func RecordOperation(operation, outcome string) {
	CredentialOperations.WithLabelValues(operation, outcome).Inc()
}

func observeHash(operation string, d time.Duration) {
	PasswordHashDuration.WithLabelValues(operation).Observe(d.Seconds())
}
