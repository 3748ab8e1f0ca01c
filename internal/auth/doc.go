// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

// Package auth manages GymTracker credentials.
//
// # Domain Types
//
// Users should be created with NewUser, which validates the email, password,
// name, birth year and gender and then hashes the password. The password hash
// and salt are only ever replaced through User.ChangePassword, which requires
// a recovery code issued by User.IssueRecoveryCode.
//
// Direct struct initialization bypasses validation and may create invalid state.
// Repository implementations receive pre-validated types from NewUser.
//
// # Strategies
//
//   - PasswordHasher (Argon2idHasher) derives salted argon2id hashes
//   - TokenIssuer (JWTIssuer) signs stateless HS256 session tokens
//
// # Services
//
// CredentialService coordinates registration, login, recovery code issuance
// and password changes over a UserRepository and a Transactor. It is created
// with NewCredentialService, which validates dependencies.
package auth
