// Package replicate runs hosted image-edit and image-to-video models through
// the Replicate predictions API and downloads their outputs.
//
// A prediction is created against /models/{owner}/{name}/predictions, polled
// at /predictions/{id} until it reaches a terminal status, and its first
// output URL is streamed to the destination path. Input images are sent as
// base64 data URIs.
package replicate
