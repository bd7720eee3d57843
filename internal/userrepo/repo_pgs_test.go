//go:build integration

package userrepo_test

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"
	"time"

	"cardbank/internal/domain"
	"cardbank/internal/integrationtest"
	"cardbank/internal/integrationtest/helpers"
	"cardbank/internal/middleware"
	"cardbank/internal/userrepo"
	"cardbank/pkg/configpkg"
	"cardbank/pkg/passpkg"
	"cardbank/pkg/randompkg"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	_ "github.com/lib/pq"
)

var (
	dbDriver string
	dbSource string
	ctx      context.Context
)

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	dbDriver = config.DBDriver
	dbSource = config.DBSource

	logger := middleware.CreateLogger(config)
	ctx = logger.WithContext(context.Background())

	os.Exit(m.Run())
}

func TestCreate(t *testing.T) {
	hashedPassword, err := passpkg.Hash(randompkg.String(10))
	if err != nil {
		t.Fatalf("passpkg.Hash() returned error: %v", err)
	}

	testCases := []struct {
		name    string
		arg     func(tx *sql.Tx) domain.CreateUserParams
		wantErr error
	}{
		{
			name: "OK",
			arg: func(tx *sql.Tx) domain.CreateUserParams {
				return domain.CreateUserParams{
					Username:       randompkg.Owner(),
					HashedPassword: hashedPassword,
					FullName:       randompkg.Owner(),
					Email:          randompkg.Email(),
					Role:           domain.RoleUser,
				}
			},
		},
		{
			name: "ErrUsernameAlreadyExists",
			arg: func(tx *sql.Tx) domain.CreateUserParams {
				user := helpers.SeedUser(t, tx)

				return domain.CreateUserParams{
					Username:       user.Username,
					HashedPassword: hashedPassword,
					FullName:       randompkg.Owner(),
					Email:          randompkg.Email(),
					Role:           domain.RoleUser,
				}
			},
			wantErr: domain.ErrUsernameAlreadyExists,
		},
		{
			name: "ErrEmailAlreadyExists",
			arg: func(tx *sql.Tx) domain.CreateUserParams {
				user := helpers.SeedUser(t, tx)

				return domain.CreateUserParams{
					Username:       randompkg.Owner(),
					HashedPassword: hashedPassword,
					FullName:       randompkg.Owner(),
					Email:          user.Email,
					Role:           domain.RoleUser,
				}
			},
			wantErr: domain.ErrEmailAlreadyExists,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			tx := integrationtest.SetupTX(t, dbDriver, dbSource)
			userRepo := userrepo.NewRepoPGS(tx)

			arg := tc.arg(tx)

			got, err := userRepo.Create(ctx, arg)
			if err != nil {
				if err == tc.wantErr {
					return
				}
				t.Fatalf("userRepo.Create(ctx, %+v) returned error: %v", arg, err)
			}

			if got.Username != arg.Username {
				t.Errorf("got.Username = %v, want %v", got.Username, arg.Username)
			}

			if got.Role != domain.RoleUser {
				t.Errorf("got.Role = %v, want %v", got.Role, domain.RoleUser)
			}

			if !got.Enabled {
				t.Error("got.Enabled = false, want true")
			}

			if got.CreatedAt.IsZero() {
				t.Error("got.CreatedAt is zero, want non zero")
			}
		})
	}
}

func TestGet(t *testing.T) {
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	userRepo := userrepo.NewRepoPGS(tx)

	want := helpers.SeedUser(t, tx)

	got, err := userRepo.Get(ctx, want.Username)
	if err != nil {
		t.Fatalf("userRepo.Get(ctx, %v) returned error: %v", want.Username, err)
	}

	if diff := cmp.Diff(want, got, cmpopts.EquateApproxTime(time.Second)); diff != "" {
		t.Errorf("userRepo.Get(ctx, %v) returned unexpected difference (-want +got):\n%s",
			want.Username, diff)
	}

	if _, err = userRepo.Get(ctx, "nonexistent"); err != domain.ErrUserNotFound {
		t.Errorf("userRepo.Get(ctx, nonexistent) returned error %v, want %v", err, domain.ErrUserNotFound)
	}
}

func TestList(t *testing.T) {
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	userRepo := userrepo.NewRepoPGS(tx)

	n := 5
	for i := 0; i < n; i++ {
		helpers.SeedUser(t, tx)
	}

	got, err := userRepo.List(ctx, int32(n), 0)
	if err != nil {
		t.Fatalf("userRepo.List(ctx, %v, 0) returned error: %v", n, err)
	}

	if len(got) != n {
		t.Errorf("len(got) = %v, want %v", len(got), n)
	}

	got, err = userRepo.List(ctx, int32(n), int32(n))
	if err != nil {
		t.Fatalf("userRepo.List(ctx, %v, %v) returned error: %v", n, n, err)
	}

	if len(got) != 0 {
		t.Errorf("len(got) = %v, want 0", len(got))
	}
}

func TestSetRole(t *testing.T) {
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	userRepo := userrepo.NewRepoPGS(tx)

	user := helpers.SeedUser(t, tx)

	got, err := userRepo.SetRole(ctx, user.Username, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("userRepo.SetRole(ctx, %v, ADMIN) returned error: %v", user.Username, err)
	}

	if got.Role != domain.RoleAdmin {
		t.Errorf("got.Role = %v, want %v", got.Role, domain.RoleAdmin)
	}

	if _, err = userRepo.SetRole(ctx, "nonexistent", domain.RoleAdmin); err != domain.ErrUserNotFound {
		t.Errorf("userRepo.SetRole(ctx, nonexistent, ADMIN) returned error %v, want %v",
			err, domain.ErrUserNotFound)
	}
}

func TestSetEnabled(t *testing.T) {
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	userRepo := userrepo.NewRepoPGS(tx)

	user := helpers.SeedUser(t, tx)

	got, err := userRepo.SetEnabled(ctx, user.Username, false)
	if err != nil {
		t.Fatalf("userRepo.SetEnabled(ctx, %v, false) returned error: %v", user.Username, err)
	}

	if got.Enabled {
		t.Error("got.Enabled = true, want false")
	}

	got, err = userRepo.SetEnabled(ctx, user.Username, true)
	if err != nil {
		t.Fatalf("userRepo.SetEnabled(ctx, %v, true) returned error: %v", user.Username, err)
	}

	if !got.Enabled {
		t.Error("got.Enabled = false, want true")
	}

	if _, err = userRepo.SetEnabled(ctx, "nonexistent", false); err != domain.ErrUserNotFound {
		t.Errorf("userRepo.SetEnabled(ctx, nonexistent, false) returned error %v, want %v",
			err, domain.ErrUserNotFound)
	}
}
