package casdoor

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/training-assessment-service/internal/cache"
	"github.com/SAP-F-2025/training-assessment-service/internal/models"
)

type fakeClient struct {
	calls int
	users map[string]*casdoorsdk.User
}

func (f *fakeClient) GetUserByUserId(id string) (*casdoorsdk.User, error) {
	f.calls++
	return f.users[id], nil
}

func TestGetByIDUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	fake := &fakeClient{users: map[string]*casdoorsdk.User{
		"u1": {
			Id:          "u1",
			DisplayName: "Asha Rao",
			Email:       "asha@example.com",
			Type:        "normal-user",
			Properties:  map[string]string{TenantProperty: "4"},
			Roles:       []*casdoorsdk.Role{{Name: "student"}},
		},
	}}
	repo := newUserCasdoor(fake, cache.NewCacheManager(client))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		user, err := repo.GetByID(ctx, "u1")
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if user.TenantID != 4 || user.Role != models.RoleStudent || user.FullName != "Asha Rao" {
			t.Errorf("user = %+v", user)
		}
	}
	if fake.calls != 1 {
		t.Errorf("casdoor calls = %d, want 1", fake.calls)
	}

	repo.Forget(ctx, "u1")
	if _, err := repo.GetByID(ctx, "u1"); err != nil {
		t.Fatalf("GetByID() after Forget error = %v", err)
	}
	if fake.calls != 2 {
		t.Errorf("casdoor calls after Forget = %d, want 2", fake.calls)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := newUserCasdoor(&fakeClient{}, cache.NewCacheManager(nil))
	if _, err := repo.GetByID(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestConvertRoles(t *testing.T) {
	tests := []struct {
		name string
		user *casdoorsdk.User
		want models.UserRole
	}{
		{name: "admin flag", user: &casdoorsdk.User{IsAdmin: true}, want: models.RoleAdmin},
		{name: "admin role wins", user: &casdoorsdk.User{Roles: []*casdoorsdk.Role{{Name: "student"}, {Name: "Admin"}}}, want: models.RoleAdmin},
		{name: "teacher role", user: &casdoorsdk.User{Roles: []*casdoorsdk.Role{{Name: "instructor"}}}, want: models.RoleTeacher},
		{name: "type fallback", user: &casdoorsdk.User{Type: "administrator"}, want: models.RoleAdmin},
		{name: "default", user: &casdoorsdk.User{}, want: models.RoleStudent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConvertUser(tt.user).Role; got != tt.want {
				t.Errorf("role = %v, want %v", got, tt.want)
			}
		})
	}
}
