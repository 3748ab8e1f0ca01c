// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gymtracker/gymtracker/internal/store"
)

var _ = Describe("Migrator", Ordered, func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		connStr   string
		migrator  *store.Migrator
		pool      *pgxpool.Pool
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("gymtracker_test"),
			postgres.WithUsername("gymtracker"),
			postgres.WithPassword("gymtracker"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		migrator, err = store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())

		pool, err = store.Connect(ctx, connStr, 10*time.Second)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if pool != nil {
			pool.Close()
		}
		if migrator != nil {
			_ = migrator.Close()
		}
		if container != nil {
			_ = container.Terminate(ctx)
		}
	})

	It("starts at version zero with everything pending", func() {
		status, err := migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Version).To(BeZero())
		Expect(status.Pending).To(Equal([]uint{1, 2}))
	})

	It("applies all migrations", func() {
		Expect(migrator.Up()).To(Succeed())

		status, err := migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Version).To(Equal(uint(2)))
		Expect(status.Dirty).To(BeFalse())
		Expect(status.Pending).To(BeEmpty())
	})

	It("enforces case-insensitive email uniqueness", func() {
		insert := `INSERT INTO users (id, email, name, birth_year, password_hash, password_salt)
			VALUES ($1, $2, 'Ana', 1994, '\x00', '\x00')`
		_, err := pool.Exec(ctx, insert, "01HZ0000000000000000000001", "a@x.com")
		Expect(err).NotTo(HaveOccurred())

		_, err = pool.Exec(ctx, insert, "01HZ0000000000000000000002", "A@X.COM")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("users_email_key"))
	})

	It("requires recovery hash and expiry together", func() {
		_, err := pool.Exec(ctx,
			`UPDATE users SET recovery_code_hash = '\x01' WHERE email = 'a@x.com'`)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("users_recovery_code_check"))
	})

	It("rolls everything back and can be forced", func() {
		Expect(migrator.Down()).To(Succeed())
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())

		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Force(1)).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(1)))
	})
})
