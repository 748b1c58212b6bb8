package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	echoapi "github.com/trezcool/sikap/apps/api/echo"
	"github.com/trezcool/sikap/core/staff"
	testutil "github.com/trezcool/sikap/tests"
)

func Test_staffApi_login(t *testing.T) {
	app := setup(t)

	testutil.CreateStaff(t, stfRepo, "198001012005011001", "Budi Santoso", "budisantoso", "budi@sikap.test", "LovingGo!", []string{staff.RoleTeacher}, true)
	testutil.CreateStaff(t, stfRepo, "198202022006022002", "Siti Aminah", "sitiaminah", "siti@sikap.test", "LovingGo!", []string{staff.RoleTeacher}, false)

	tests := []httpTest{
		{
			name:     "login ok",
			body:     marchallObj(t, echoapi.LoginRequest{Username: "budisantoso", Password: "LovingGo!"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "login by email ok",
			body:     marchallObj(t, echoapi.LoginRequest{Username: "budi@sikap.test", Password: "LovingGo!"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "wrong password fails",
			body:     marchallObj(t, echoapi.LoginRequest{Username: "budisantoso", Password: "HatingGo!"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "unknown staff fails",
			body:     marchallObj(t, echoapi.LoginRequest{Username: "ghost", Password: "LovingGo!"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "deactivated account fails",
			body:     marchallObj(t, echoapi.LoginRequest{Username: "sitiaminah", Password: "LovingGo!"}),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/staff/login", tt.body)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusOK {
				var resp echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("json.Unmarshal() failed: %v", err)
				}
				if resp.Token == "" {
					t.Error("failed! empty token")
				}
			} else {
				checkCodeAndData(t, tt, rec)
			}
		})
	}
}

func Test_staffApi_create(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateStaff(t, stfRepo, "197001012000011001", "Pak Kepala", "pakkepala", "kepala@sikap.test", "LovingGo!", []string{staff.RoleAdminPrincipal}, true)
	teacher := testutil.CreateStaff(t, stfRepo, "198001012005011001", "Budi Santoso", "budisantoso", "budi@sikap.test", "LovingGo!", []string{staff.RoleTeacher}, true)
	adminToken := getToken(t, admin)
	teacherToken := getToken(t, teacher)

	newStaff := func(nip, uname, email string, roles ...string) []byte {
		return marchallObj(t, staff.NewStaff{
			NIP:             nip,
			Name:            "Guru Baru",
			Username:        uname,
			Email:           email,
			Password:        "LovingGo!",
			PasswordConfirm: "LovingGo!",
			Roles:           roles,
		})
	}

	tests := []httpTest{
		{
			name:     "anonymous fails",
			body:     newStaff("199001012015011001", "gurubaru", "baru@sikap.test", staff.RoleTeacher),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "non-admin fails",
			token:    teacherToken,
			body:     newStaff("199001012015011001", "gurubaru", "baru@sikap.test", staff.RoleTeacher),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "admin ok",
			token:    adminToken,
			body:     newStaff("199001012015011001", "gurubaru", "baru@sikap.test", staff.RoleTeacher),
			wantCode: http.StatusCreated,
		},
		{
			name:     "duplicate NIP fails",
			token:    adminToken,
			body:     newStaff("199001012015011001", "gurulain", "lain@sikap.test", staff.RoleTeacher),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"nip": "a staff member with this NIP already exists"}),
		},
		{
			name:     "duplicate username fails",
			token:    adminToken,
			body:     newStaff("199102022016022002", "gurubaru", "lain@sikap.test", staff.RoleTeacher),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "a staff member with this username already exists"}),
		},
		{
			name:     "cannot grant a role above own max",
			token:    adminToken,
			body:     newStaff("199203032017033003", "calonowner", "owner@sikap.test", staff.RoleAdminOwner),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/staff/register", tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, tt.wantCode, rec.Body.String())
				}
				var stf staff.Staff
				if err := json.Unmarshal(rec.Body.Bytes(), &stf); err != nil {
					t.Fatalf("json.Unmarshal() failed: %v", err)
				}
				if stf.ID == "" || stf.NIP != "199001012015011001" {
					t.Errorf("failed! unexpected staff %+v", stf)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_staffApi_query(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateStaff(t, stfRepo, "197001012000011001", "Pak Kepala", "pakkepala", "kepala@sikap.test", "LovingGo!", []string{staff.RoleAdminPrincipal}, true)
	teacher := testutil.CreateStaff(t, stfRepo, "198001012005011001", "Budi Santoso", "budisantoso", "budi@sikap.test", "LovingGo!", []string{staff.RoleTeacher}, true)

	path := func(search string, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		for _, role := range roles {
			v.Add("role", role)
		}
		if len(v) == 0 {
			return "/v1/staff"
		}
		return "/v1/staff?" + v.Encode()
	}

	tests := []httpTest{
		{
			name:     "anonymous fails",
			path:     path(""),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "non-admin fails",
			path:     path(""),
			token:    getToken(t, teacher),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "all",
			path:     path(""),
			token:    getToken(t, admin),
			wantCode: http.StatusOK,
			wantData: marchallList(t, admin, teacher),
		},
		{
			name:     "search by name",
			path:     path("budi"),
			token:    getToken(t, admin),
			wantCode: http.StatusOK,
			wantData: marchallList(t, teacher),
		},
		{
			name:     "filter by role",
			path:     path("", staff.RoleAdmin),
			token:    getToken(t, admin),
			wantCode: http.StatusOK,
			wantData: marchallList(t, admin),
		},
		{
			name:     "no match",
			path:     path("nobody"),
			token:    getToken(t, admin),
			wantCode: http.StatusOK,
			wantData: []byte("[]"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
