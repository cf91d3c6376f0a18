/*
Copyright © 2019 the InMAP authors.
This file is part of rastermask.

rastermask is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

rastermask is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with rastermask.  If not, see <http://www.gnu.org/licenses/>.
*/

package maskutil

import (
	"context"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/spatialmodel/rastermask"
	"github.com/spatialmodel/rastermask/internal/hash"
)

// rasterRequest identifies a raster layer to be loaded.
type rasterRequest struct {
	Path  string
	Layer string
	Proj  string
}

// loadWorkers is the number of rasters read at once. Reads are mostly
// downloads, so this does not depend on the number of CPUs.
const loadWorkers = 8

// rasterLoader loads rasters concurrently, reading each distinct
// request only once.
type rasterLoader struct {
	cache *requestcache.Cache
}

func newRasterLoader(c chan string) *rasterLoader {
	return &rasterLoader{
		cache: requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			r := request.(rasterRequest)
			return loadRaster(ctx, r.Path, r.Layer, r.Proj, c)
		}, loadWorkers, requestcache.Memory(100)),
	}
}

// load returns the requested rasters in the order they were requested.
// Distinct requests are read in parallel. If any of them fails, the rest
// are cancelled and load returns after all of them have stopped.
func (l *rasterLoader) load(ctx context.Context, reqs ...rasterRequest) ([]*rastermask.Raster, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := make([]string, len(reqs))
	index := make(map[string]int)
	var pending []*requestcache.Request
	for i, r := range reqs {
		keys[i] = hash.Hash(r)
		if _, ok := index[keys[i]]; ok {
			continue
		}
		index[keys[i]] = len(pending)
		pending = append(pending, l.cache.NewRequest(ctx, r, keys[i]))
	}

	results := make([]*rastermask.Raster, len(pending))
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	wg.Add(len(pending))
	for i, p := range pending {
		go func(i int, p *requestcache.Request) {
			defer wg.Done()
			result, err := p.Result()
			if err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
				return
			}
			results[i] = result.(*rastermask.Raster)
		}(i, p)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	o := make([]*rastermask.Raster, len(reqs))
	for i, k := range keys {
		o[i] = results[index[k]]
	}
	return o, nil
}

// loadTiles loads correction surface tiles in projection proj.
func (l *rasterLoader) loadTiles(ctx context.Context, paths []string, proj string) ([]*rastermask.Raster, error) {
	reqs := make([]rasterRequest, len(paths))
	for i, p := range paths {
		reqs[i] = rasterRequest{Path: p, Proj: proj}
	}
	return l.load(ctx, reqs...)
}
