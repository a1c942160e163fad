// Package auth decorates build server requests with credentials.
//
// Session performs the crumb handshake once at construction and then adds
// Basic-Auth to every request and the crumb header to mutating ones. Basic
// adds credentials only, for servers with CSRF protection disabled.
//
//	sess, err := auth.NewSession(ctx, "https://ci.example.com", "admin", token,
//	    auth.WithTransport(transport))
//	if err != nil {
//	    return err
//	}
//	resp, err := client.NewRequest(client.MethodPost, transport).
//	    SetBaseURL(sess.BaseURL()).
//	    SetEndpoint("/job/app/doDelete").
//	    Authenticate(sess).
//	    Perform(ctx)
package auth
