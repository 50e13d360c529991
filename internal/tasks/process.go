package tasks

import (
	"context"
	"sort"
	"sync"

	"github.com/ChristopherJMiller/nutune/internal/artwork"
	"github.com/ChristopherJMiller/nutune/internal/models"
)

// ProcessedTrack is a track with cover art embedded (when the format
// supports it), ready for the write stage.
type ProcessedTrack struct {
	Track models.Track
	Index int
	Data  []byte
}

// processStage embeds cover art into downloaded tracks with its own
// worker pool, independent of the download pool so tagging CPU work
// never holds up network fetches. Tracks whose format has no embedding
// support, or where tagging fails, pass through with their original
// bytes; a track is never dropped at this stage.
type processStage struct {
	workers int
	onSkip  func(track models.Track, err error)
}

// Run processes all downloaded tracks and returns them ordered by unit
// index. cover resolves the processed cover bytes for a track; it may
// return nil, in which case the track passes through untouched.
func (s *processStage) Run(ctx context.Context, tracks []DownloadedTrack, cover func(DownloadedTrack) []byte) []ProcessedTrack {
	jobsCh := make(chan DownloadedTrack, len(tracks))
	results := make(chan ProcessedTrack, len(tracks))

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for track := range jobsCh {
				select {
				case <-ctx.Done():
					return
				default:
				}

				data := track.Data
				if art := cover(track); art != nil {
					tagged, err := artwork.Embed(data, art, track.Track.Ext())
					if err != nil {
						if s.onSkip != nil {
							s.onSkip(track.Track, err)
						}
					} else {
						data = tagged
					}
				}

				results <- ProcessedTrack{
					Track: track.Track,
					Index: track.Index,
					Data:  data,
				}
			}
		}()
	}

	for _, track := range tracks {
		jobsCh <- track
	}
	close(jobsCh)

	go func() {
		wg.Wait()
		close(results)
	}()

	processed := make([]ProcessedTrack, 0, len(tracks))
	for res := range results {
		processed = append(processed, res)
	}
	sort.Slice(processed, func(i, j int) bool {
		return processed[i].Index < processed[j].Index
	})
	return processed
}
