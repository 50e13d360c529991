package tasks

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ChristopherJMiller/nutune/internal/models"
	"github.com/ChristopherJMiller/nutune/internal/services"
)

// downloadJob is one track handed to the download pool. CoverID is set
// for playlist tracks, where every track may carry different art; album
// tracks share one cover fetched by the engine up front.
type downloadJob struct {
	index   int
	track   models.Track
	coverID string
}

// DownloadedTrack is a track fetched from the server with its position
// in the unit listing preserved.
type DownloadedTrack struct {
	Track   models.Track
	Index   int
	Data    []byte
	CoverID string
}

// downloadStage fetches track and cover bytes concurrently with a
// worker pool. It respects API rate limits, drops tracks whose download
// fails, and fetches each distinct cover at most once per unit.
type downloadStage struct {
	svc       services.Service
	workers   int
	limiter   *rate.Limiter
	coverSize int
	onError   func(track models.Track, err error)
}

// Run downloads all jobs and returns the successful tracks ordered by
// their unit index, plus the raw bytes of every distinct cover that was
// requested and could be fetched.
func (s *downloadStage) Run(ctx context.Context, jobs []downloadJob) ([]DownloadedTrack, map[string][]byte) {
	jobsCh := make(chan downloadJob, len(jobs))
	results := make(chan DownloadedTrack, len(jobs))

	covers := struct {
		sync.Mutex
		data map[string][]byte
		seen map[string]struct{}
	}{
		data: make(map[string][]byte),
		seen: make(map[string]struct{}),
	}

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobsCh {
				select {
				case <-ctx.Done():
					return
				default:
				}

				if err := s.limiter.Wait(ctx); err != nil {
					return
				}

				data, err := s.svc.DownloadTrack(ctx, job.track.ID)
				if err != nil {
					if s.onError != nil {
						s.onError(job.track, err)
					}
					continue
				}

				if job.coverID != "" {
					covers.Lock()
					_, claimed := covers.seen[job.coverID]
					if !claimed {
						covers.seen[job.coverID] = struct{}{}
					}
					covers.Unlock()

					if !claimed {
						if art, err := s.svc.GetCoverArt(ctx, job.coverID, s.coverSize); err == nil {
							covers.Lock()
							covers.data[job.coverID] = art
							covers.Unlock()
						}
					}
				}

				results <- DownloadedTrack{
					Track:   job.track,
					Index:   job.index,
					Data:    data,
					CoverID: job.coverID,
				}
			}
		}()
	}

	for _, job := range jobs {
		jobsCh <- job
	}
	close(jobsCh)

	go func() {
		wg.Wait()
		close(results)
	}()

	downloaded := make([]DownloadedTrack, 0, len(jobs))
	for res := range results {
		downloaded = append(downloaded, res)
	}
	sort.Slice(downloaded, func(i, j int) bool {
		return downloaded[i].Index < downloaded[j].Index
	})
	return downloaded, covers.data
}
