// Package jenkins drives a Jenkins build server through its REST and XML
// management API.
//
// A Manager creates, triggers, inspects and deletes jobs, manages plugins and
// restarts the server. It authenticates with Basic-Auth and the server's CSRF
// crumb, fetched once when the Manager is built.
//
//	transport := client.NewClient(client.WithLogger(logger))
//	defer transport.Close()
//
//	mgr, err := jenkins.New(ctx, "https://ci.example.com", "admin", apiToken,
//	    jenkins.WithTransport(transport),
//	    jenkins.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//
//	doc, _ := jobxml.New()
//	doc.AddJobToken("trigger").AddBashScript("make test")
//	if err := mgr.ForceCreateJob(ctx, "app-tests", doc.Render()); err != nil {
//	    return err
//	}
//	return mgr.BuildJob(ctx, "app-tests", "trigger")
//
// Failures match ErrValidationFailed, ErrNetworkFailed or ErrServerRejected
// with errors.Is. Server rejections are *ServerRejectedError values that also
// match their operation kind, such as ErrCreationFailed.
package jenkins
