// Package mocks provides centralized mock implementations for testing.
//
// Two styles are used. Service and auth mocks are hand-written with function
// fields: each method calls its Fn field when set and otherwise returns the
// configured defaults. Store mocks embed testify's mock.Mock so service tests
// can assert the exact calls made.
//
// Usage:
//
//	import "github.com/phrazzld/doafter-api/internal/mocks"
//
//	func TestSomething(t *testing.T) {
//	    jwtService := &mocks.MockJWTService{
//	        ValidateTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
//	            return &auth.Claims{UserID: userID}, nil
//	        },
//	    }
//
//	    // Use the mock in your test...
//	}
package mocks
