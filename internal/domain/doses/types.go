package doses

type Source string

const (
	SourceManual  Source = "manual"
	SourceSweeper Source = "sweeper"
)

func (s Source) Valid() bool {
	return s == SourceManual || s == SourceSweeper
}
