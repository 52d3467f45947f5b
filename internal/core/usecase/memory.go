package usecase

import "github.com/kirillkom/docstream/internal/core/domain"

const (
	kb = int64(1024)
	mb = 1024 * kb
)

// EstimateMemory derives RAM requirements from file size and page count
// alone. No I/O: the page count is already known from assessment.
//
// The per-page average is keyed off the file's bytes-per-page ratio:
// dense pages (images, complex layout) cost ~10MB to materialize, plain
// text pages ~2MB, everything else ~5MB.
func EstimateMemory(fileSize int64, pageCount int) domain.MemoryEstimate {
	perPage := 5 * mb
	if pageCount > 0 {
		sizePerPage := fileSize / int64(pageCount)
		switch {
		case sizePerPage > 200*kb:
			perPage = 10 * mb
		case sizePerPage < 50*kb:
			perPage = 2 * mb
		}
	} else {
		perPage = 2 * mb
	}

	return domain.MemoryEstimate{
		MinMemory:         fileSize + perPage,
		RecommendedMemory: fileSize + 5*perPage,
		PeakMemory:        int64(float64(fileSize+10*perPage) * 1.2),
		PerPageAvg:        perPage,
	}
}
