// Package ffmpeg composes page videos and slideshows with the ffmpeg CLI.
//
// A page video loops an animated clip under a narration track and trims it to
// the narration length. A slideshow concatenates page videos in order,
// re-encoding to a common frame rate and codec. Outputs are rendered to a
// temporary file beside the destination and renamed into place.
package ffmpeg
