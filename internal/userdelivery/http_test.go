package userdelivery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"cardbank/internal/domain"
	"cardbank/internal/integrationtest/helpers"
	"cardbank/internal/middleware"
	"cardbank/pkg/errorspkg"
	"cardbank/pkg/randompkg"
	"cardbank/pkg/tokenpkg"
	"cardbank/pkg/web"

	"github.com/golang/mock/gomock"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestCreate(t *testing.T) {
	user := helpers.RandomUser()
	password := randompkg.String(10)

	session := domain.Session{
		Username:     user.Username,
		RefreshToken: randompkg.String(32),
		ExpiresAt:    time.Now().Add(time.Hour),
	}

	type requestBody struct {
		Username string `json:"username"`
		Password string `json:"password"`
		FullName string `json:"fullname"`
		Email    string `json:"email"`
	}

	okBody := requestBody{
		Username: user.Username,
		Password: password,
		FullName: user.FullName,
		Email:    user.Email,
	}

	testCases := []struct {
		name           string
		requestBody    requestBody
		buildStubs     func(userService *MockService, sessionMaker *MockSessionMaker)
		wantStatusCode int
		wantError      string
		checkResponse  func(t *testing.T, res web.Response)
	}{
		{
			name:        "OK",
			requestBody: okBody,
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().
					Create(gomock.Any(),
						gomock.Eq(user.Username),
						gomock.Eq(password),
						gomock.Eq(user.FullName),
						gomock.Eq(user.Email)).
					Times(1).
					Return(user, nil)
				sessionMaker.EXPECT().
					Create(gomock.Any(), gomock.AssignableToTypeOf(domain.CreateSessionParams{})).
					Times(1).
					Return("access", time.Now().Add(time.Minute), session, nil)
			},
			wantStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, res web.Response) {
				if res.AccessToken != "access" {
					t.Errorf(`res.AccessToken=%q, want "access"`, res.AccessToken)
				}

				if res.RefreshToken != session.RefreshToken {
					t.Errorf(`res.RefreshToken=%q, want %q`, res.RefreshToken, session.RefreshToken)
				}

				got, ok := res.Data.(*struct {
					User domain.UserWithoutPassword `json:"user"`
				})
				if !ok {
					t.Errorf(`res.Data=%v, failed type conversion`, res.Data)
				}

				compareCreatedAt := cmpopts.EquateApproxTime(time.Second)
				if diff := cmp.Diff(user, got.User, compareCreatedAt); diff != "" {
					t.Errorf("res.Data mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name: "InvalidEmail",
			requestBody: requestBody{
				Username: user.Username,
				Password: password,
				FullName: user.FullName,
				Email:    "notanemail",
			},
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().
					Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Email must be a valid email",
		},
		{
			name: "ShortPassword",
			requestBody: requestBody{
				Username: user.Username,
				Password: "short",
				FullName: user.FullName,
				Email:    user.Email,
			},
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().
					Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Password must be at least 6",
		},
		{
			name:        "ErrUsernameAlreadyExists",
			requestBody: okBody,
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().
					Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.UserWithoutPassword{}, domain.ErrUsernameAlreadyExists)
			},
			wantStatusCode: http.StatusConflict,
			wantError:      domain.ErrUsernameAlreadyExists.Error(),
		},
		{
			name:        "SessionMakerError",
			requestBody: okBody,
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().
					Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(user, nil)
				sessionMaker.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Times(1).
					Return("", time.Time{}, domain.Session{}, errorspkg.ErrInternal)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      errorspkg.ErrInternal.Error(),
		},
		{
			name:        "InternalError",
			requestBody: okBody,
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().
					Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.UserWithoutPassword{}, errorspkg.ErrInternal)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      errorspkg.ErrInternal.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			userService := NewMockService(ctrl)
			sessionMaker := NewMockSessionMaker(ctrl)
			userHandler := NewHandler(userService, sessionMaker)

			server := gin.New()
			server.POST("/users", userHandler.Create)

			tc.buildStubs(userService, sessionMaker)

			body, err := json.Marshal(tc.requestBody)
			if err != nil {
				t.Fatalf("Encoding request body error: %v", err)
			}

			req, err := http.NewRequest(http.MethodPost, "/users", bytes.NewReader(body))
			if err != nil {
				t.Fatalf("Creating request error: %v", err)
			}

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			res := web.Response{
				Data: &struct {
					User domain.UserWithoutPassword `json:"user"`
				}{},
			}

			if err := json.NewDecoder(recorder.Body).Decode(&res); err != nil {
				t.Errorf("Decoding response body error: %v", err)
			}

			if tc.wantStatusCode != http.StatusOK {
				if res.Error != tc.wantError {
					t.Errorf(`resp.Error=%q, want %q`, res.Error, tc.wantError)
				}
			} else {
				tc.checkResponse(t, res)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	user := helpers.RandomUser()
	password := randompkg.String(10)

	session := domain.Session{
		Username:     user.Username,
		RefreshToken: randompkg.String(32),
		ExpiresAt:    time.Now().Add(time.Hour),
	}

	type requestBody struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	okBody := requestBody{
		Username: user.Username,
		Password: password,
	}

	testCases := []struct {
		name           string
		requestBody    requestBody
		buildStubs     func(userService *MockService, sessionMaker *MockSessionMaker)
		wantStatusCode int
		wantError      string
	}{
		{
			name:        "OK",
			requestBody: okBody,
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().
					CheckPassword(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(password)).
					Times(1).
					Return(user, nil)
				sessionMaker.EXPECT().
					Create(gomock.Any(), gomock.AssignableToTypeOf(domain.CreateSessionParams{})).
					Times(1).
					Return("access", time.Now().Add(time.Minute), session, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:        "ErrUserNotFound",
			requestBody: okBody,
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().
					CheckPassword(gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.UserWithoutPassword{}, domain.ErrUserNotFound)
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      domain.ErrUserNotFound.Error(),
		},
		{
			name:        "ErrWrongPassword",
			requestBody: okBody,
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().
					CheckPassword(gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.UserWithoutPassword{}, domain.ErrWrongPassword)
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      domain.ErrWrongPassword.Error(),
		},
		{
			name:        "ErrUserDisabled",
			requestBody: okBody,
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().
					CheckPassword(gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.UserWithoutPassword{}, domain.ErrUserDisabled)
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      domain.ErrUserDisabled.Error(),
		},
		{
			name:        "InternalError",
			requestBody: okBody,
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().
					CheckPassword(gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.UserWithoutPassword{}, errorspkg.ErrInternal)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      errorspkg.ErrInternal.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			userService := NewMockService(ctrl)
			sessionMaker := NewMockSessionMaker(ctrl)
			userHandler := NewHandler(userService, sessionMaker)

			server := gin.New()
			server.POST("/users/login", userHandler.Login)

			tc.buildStubs(userService, sessionMaker)

			body, err := json.Marshal(tc.requestBody)
			if err != nil {
				t.Fatalf("Encoding request body error: %v", err)
			}

			req, err := http.NewRequest(http.MethodPost, "/users/login", bytes.NewReader(body))
			if err != nil {
				t.Fatalf("Creating request error: %v", err)
			}

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			var res web.Response
			if err := json.NewDecoder(recorder.Body).Decode(&res); err != nil {
				t.Errorf("Decoding response body error: %v", err)
			}

			if tc.wantStatusCode != http.StatusOK && res.Error != tc.wantError {
				t.Errorf(`resp.Error=%q, want %q`, res.Error, tc.wantError)
			}
		})
	}
}

func TestList(t *testing.T) {
	adminUsername := randompkg.Owner()
	tokenSymmetricKey := randompkg.String(32)

	tokenMaker, err := tokenpkg.NewPasetoMaker(tokenSymmetricKey)
	if err != nil {
		t.Fatalf("tokenpkg.NewPasetoMaker(%v) returned error: %v", tokenSymmetricKey, err)
	}

	authType := middleware.AuthTypeBearer
	duration := time.Minute

	n := 5
	users := make([]domain.UserWithoutPassword, n)

	for i := 0; i < n; i++ {
		users[i] = helpers.RandomUser()
	}

	testCases := []struct {
		name           string
		query          string
		setupAuth      func(t *testing.T, r *http.Request) error
		buildStubs     func(userService *MockService)
		wantStatusCode int
		wantError      string
		checkData      func(data any)
	}{
		{
			name:  "OK",
			query: "page_id=1&page_size=10",
			setupAuth: func(t *testing.T, r *http.Request) error {
				return middleware.AddAuthorization(r, tokenMaker, authType, adminUsername, string(domain.RoleAdmin), duration)
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					List(gomock.Any(), gomock.Eq(int32(10)), gomock.Eq(int32(1))).
					Times(1).
					Return(users, nil)
			},
			wantStatusCode: http.StatusOK,
			checkData: func(data any) {
				got, ok := data.(*struct {
					Users []domain.UserWithoutPassword `json:"users"`
				})
				if !ok {
					t.Errorf(`res.Data=%v, failed type conversion`, data)
				}

				compareCreatedAt := cmpopts.EquateApproxTime(time.Second)
				if diff := cmp.Diff(users, got.Users, compareCreatedAt); diff != "" {
					t.Errorf("res.Data mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name:  "NoAuthorization",
			query: "page_id=1&page_size=10",
			setupAuth: func(t *testing.T, r *http.Request) error {
				return nil
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					List(gomock.Any(), gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      middleware.ErrAuthHeaderNotFound.Error(),
		},
		{
			name:  "ForbiddenForRegularUser",
			query: "page_id=1&page_size=10",
			setupAuth: func(t *testing.T, r *http.Request) error {
				return middleware.AddAuthorization(r, tokenMaker, authType, adminUsername, string(domain.RoleUser), duration)
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					List(gomock.Any(), gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusForbidden,
			wantError:      middleware.ErrAdminRequired.Error(),
		},
		{
			name:  "InvalidPageID",
			query: "page_id=0&page_size=10",
			setupAuth: func(t *testing.T, r *http.Request) error {
				return middleware.AddAuthorization(r, tokenMaker, authType, adminUsername, string(domain.RoleAdmin), duration)
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					List(gomock.Any(), gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:  "InternalError",
			query: "page_id=1&page_size=10",
			setupAuth: func(t *testing.T, r *http.Request) error {
				return middleware.AddAuthorization(r, tokenMaker, authType, adminUsername, string(domain.RoleAdmin), duration)
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					List(gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(nil, errorspkg.ErrInternal)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      errorspkg.ErrInternal.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			userService := NewMockService(ctrl)
			sessionMaker := NewMockSessionMaker(ctrl)
			userHandler := NewHandler(userService, sessionMaker)

			server := gin.New()
			server.Use(middleware.AuthMiddleware(tokenMaker), middleware.AdminMiddleware())
			server.GET("/admin/users", userHandler.List)

			tc.buildStubs(userService)

			req, err := http.NewRequest(http.MethodGet, "/admin/users?"+tc.query, nil)
			if err != nil {
				t.Fatalf("Creating request error: %v", err)
			}

			if err = tc.setupAuth(t, req); err != nil {
				t.Fatalf("tc.setupAuth(t, %+v) returned error: %v", req, err)
			}

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			res := web.Response{
				Data: &struct {
					Users []domain.UserWithoutPassword `json:"users"`
				}{},
			}

			if err := json.NewDecoder(recorder.Body).Decode(&res); err != nil {
				t.Fatalf("Decoding response body error: %v", err)
			}

			if tc.wantStatusCode != http.StatusOK {
				if tc.wantError != "" && res.Error != tc.wantError {
					t.Errorf(`resp.Error=%q, want %q`, res.Error, tc.wantError)
				}
			} else {
				tc.checkData(res.Data)
			}
		})
	}
}

func TestSetRole(t *testing.T) {
	adminUsername := randompkg.Owner()
	user := helpers.RandomUser()
	tokenSymmetricKey := randompkg.String(32)

	tokenMaker, err := tokenpkg.NewPasetoMaker(tokenSymmetricKey)
	if err != nil {
		t.Fatalf("tokenpkg.NewPasetoMaker(%v) returned error: %v", tokenSymmetricKey, err)
	}

	authType := middleware.AuthTypeBearer
	duration := time.Minute

	promoted := user
	promoted.Role = domain.RoleAdmin

	testCases := []struct {
		name           string
		username       string
		requestBody    gin.H
		buildStubs     func(userService *MockService)
		wantStatusCode int
		wantError      string
	}{
		{
			name:        "OK",
			username:    user.Username,
			requestBody: gin.H{"role": "ADMIN"},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					SetRole(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(domain.RoleAdmin)).
					Times(1).
					Return(promoted, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:        "InvalidRole",
			username:    user.Username,
			requestBody: gin.H{"role": "ROOT"},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					SetRole(gomock.Any(), gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:        "ErrUserNotFound",
			username:    user.Username,
			requestBody: gin.H{"role": "ADMIN"},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					SetRole(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(domain.RoleAdmin)).
					Times(1).
					Return(domain.UserWithoutPassword{}, domain.ErrUserNotFound)
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      domain.ErrUserNotFound.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			userService := NewMockService(ctrl)
			sessionMaker := NewMockSessionMaker(ctrl)
			userHandler := NewHandler(userService, sessionMaker)

			server := gin.New()
			server.Use(middleware.AuthMiddleware(tokenMaker), middleware.AdminMiddleware())
			server.PUT("/admin/users/:username/role", userHandler.SetRole)

			tc.buildStubs(userService)

			body, err := json.Marshal(tc.requestBody)
			if err != nil {
				t.Fatalf("Encoding request body error: %v", err)
			}

			url := fmt.Sprintf("/admin/users/%s/role", tc.username)
			req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
			if err != nil {
				t.Fatalf("Creating request error: %v", err)
			}

			err = middleware.AddAuthorization(req, tokenMaker, authType, adminUsername, string(domain.RoleAdmin), duration)
			if err != nil {
				t.Fatalf("middleware.AddAuthorization() returned error: %v", err)
			}

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			var res web.Response
			if err := json.NewDecoder(recorder.Body).Decode(&res); err != nil {
				t.Fatalf("Decoding response body error: %v", err)
			}

			if tc.wantStatusCode != http.StatusOK && tc.wantError != "" && res.Error != tc.wantError {
				t.Errorf(`resp.Error=%q, want %q`, res.Error, tc.wantError)
			}
		})
	}
}

func TestSetEnabled(t *testing.T) {
	adminUsername := randompkg.Owner()
	user := helpers.RandomUser()
	tokenSymmetricKey := randompkg.String(32)

	tokenMaker, err := tokenpkg.NewPasetoMaker(tokenSymmetricKey)
	if err != nil {
		t.Fatalf("tokenpkg.NewPasetoMaker(%v) returned error: %v", tokenSymmetricKey, err)
	}

	authType := middleware.AuthTypeBearer
	duration := time.Minute

	disabled := user
	disabled.Enabled = false

	testCases := []struct {
		name           string
		requestBody    gin.H
		buildStubs     func(userService *MockService)
		wantStatusCode int
		wantError      string
	}{
		{
			name:        "OK",
			requestBody: gin.H{"enabled": false},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					SetEnabled(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(false)).
					Times(1).
					Return(disabled, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:        "MissingEnabled",
			requestBody: gin.H{},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					SetEnabled(gomock.Any(), gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:        "ErrUserNotFound",
			requestBody: gin.H{"enabled": false},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					SetEnabled(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(false)).
					Times(1).
					Return(domain.UserWithoutPassword{}, domain.ErrUserNotFound)
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      domain.ErrUserNotFound.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			userService := NewMockService(ctrl)
			sessionMaker := NewMockSessionMaker(ctrl)
			userHandler := NewHandler(userService, sessionMaker)

			server := gin.New()
			server.Use(middleware.AuthMiddleware(tokenMaker), middleware.AdminMiddleware())
			server.PUT("/admin/users/:username/enabled", userHandler.SetEnabled)

			tc.buildStubs(userService)

			body, err := json.Marshal(tc.requestBody)
			if err != nil {
				t.Fatalf("Encoding request body error: %v", err)
			}

			url := fmt.Sprintf("/admin/users/%s/enabled", user.Username)
			req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
			if err != nil {
				t.Fatalf("Creating request error: %v", err)
			}

			err = middleware.AddAuthorization(req, tokenMaker, authType, adminUsername, string(domain.RoleAdmin), duration)
			if err != nil {
				t.Fatalf("middleware.AddAuthorization() returned error: %v", err)
			}

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			var res web.Response
			if err := json.NewDecoder(recorder.Body).Decode(&res); err != nil {
				t.Fatalf("Decoding response body error: %v", err)
			}

			if tc.wantStatusCode != http.StatusOK && tc.wantError != "" && res.Error != tc.wantError {
				t.Errorf(`resp.Error=%q, want %q`, res.Error, tc.wantError)
			}
		})
	}
}
