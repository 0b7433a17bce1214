package texcache

import "sync/atomic"

// Stats is a snapshot of cache activity.
type Stats struct {
	// Pending is the number of decodes waiting for a worker.
	Pending int64
	// Processing is the number of decodes running.
	Processing int64
	// LiveTextures is the number of textures shared by content hash and usage.
	LiveTextures int

	MemoryHits int64
	DiskHits   int64
	MirrorHits int64
	Decodes    int64
	Failures   int64
	Abandoned  int64
}

type counters struct {
	memoryHits atomic.Int64
	diskHits   atomic.Int64
	mirrorHits atomic.Int64
	decodes    atomic.Int64
	failures   atomic.Int64
	abandoned  atomic.Int64
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Pending:      c.pool.Queued(),
		Processing:   c.pool.Running(),
		LiveTextures: c.textures.Len(),
		MemoryHits:   c.stats.memoryHits.Load(),
		DiskHits:     c.stats.diskHits.Load(),
		MirrorHits:   c.stats.mirrorHits.Load(),
		Decodes:      c.stats.decodes.Load(),
		Failures:     c.stats.failures.Load(),
		Abandoned:    c.stats.abandoned.Load(),
	}
}
