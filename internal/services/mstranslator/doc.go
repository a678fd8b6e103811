// Package mstranslator translates subtitle text through the Microsoft Edge
// translator endpoint.
//
// The client fetches an anonymous bearer token from the Edge auth endpoint and
// caches it until shortly before the JWT expiry. Each Translate call posts the
// whole batch as one request and verifies that the response carries one
// translation per input text.
package mstranslator
