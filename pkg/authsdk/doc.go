/*
Package authsdk is a Go client for the launchpad web API, plus the wire types
the server itself encodes.

# Overview

The API is cookie based. A successful sign-up, sign-in or OAuth callback
sets an HttpOnly "token" cookie, and every later call presents it. SDKClient
keeps that cookie in a cookie jar, so one client behaves like one browser:

	client := authsdk.NewSDKClient("http://localhost:8080")

	user, err := client.SignUp(ctx, authsdk.SignUpRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "correct horse battery staple",
	})

	// The session cookie is now held by the client.
	me, err := client.Verify(ctx)

	// The gated dashboard answers 302 to /auth without a session.
	status, location, err := client.Dashboard(ctx)

# Errors

Every failed call returns an *APIError carrying the HTTP status and the
machine readable code from the response body:

	_, err := client.SignIn(ctx, "alice@example.com", "wrong")
	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == authsdk.CodeInvalidCredentials {
		// show a friendly message
	}

The server writes the same type with APIError.WriteError, so the shape on the
wire is always {"success":false,"error":"<code>","message":"<text>"}.

# Thread Safety

SDKClient is safe for concurrent use. Concurrent calls share one cookie jar,
so they also share one session.
*/
package authsdk
