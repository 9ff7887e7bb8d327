// Package library resolves Compiler Explorer library requests.
//
// A compilation may name libraries as {id, version} pairs where version is an
// exact version id, a version string, an alias, or "latest". [ResolveVersion]
// maps such a request to the version id the API expects; [LatestVersionID]
// picks the newest stable version using $order, then semantic versioning,
// then lexical order.
//
// Compilers advertise the libraries they can link through libsArr. An empty
// libsArr means every library of the language is supported; see
// [CompilerSupport] and [CheckCompatibility].
//
// Misspelled library ids are answered with ranked suggestions ([Suggest])
// rendered by [FormatErrorWithSuggestions].
package library
