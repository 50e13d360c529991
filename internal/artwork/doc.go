// Package artwork processes album cover art for portable players:
// downscaling and re-encoding server images into small JPEGs, and
// embedding them into MP3 and FLAC tags.
package artwork
