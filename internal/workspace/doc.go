// Package workspace owns the temporary files of a conversion request.
//
// Every accepted request gets a Job holding two paths: the Upload in the
// upload directory and the ConvertedArtifact in the converted directory.
// Names combine a millisecond timestamp with a random UUID so concurrent
// requests never share a file. Job.Cleanup removes both files and is safe to
// call on every exit path; a file that was never created is not an error.
package workspace
