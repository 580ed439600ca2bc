/*
Package corehttp decorates HTTP requests served through a gorilla/mux router
with the information that request-level utilities need: the registry of
services, the matched route, the caller's principals, and, for subrequests,
the parent request.

A Registry owns the router and its services.  Requests it serves are wrapped
in a *Request, available to handlers through FromContext.  Subrequests are
built with BuildRequest and executed with FollowSubrequest, and instance URIs
are computed by reversing named routes with InstanceURI.
*/
package corehttp
