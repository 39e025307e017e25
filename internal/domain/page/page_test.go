package page_test

import (
	"testing"

	"github.com/sesbridge/sesbridge/internal/domain/page"
)

func TestClamp(t *testing.T) {
	p, pp := page.Clamp(0, 0)
	if p != 1 || pp != page.DefaultPerPage {
		t.Errorf("Clamp(0,0) = (%d,%d), want (1,%d)", p, pp, page.DefaultPerPage)
	}
	p, pp = page.Clamp(3, 500)
	if p != 3 || pp != page.MaxPerPage {
		t.Errorf("Clamp(3,500) = (%d,%d), want (3,%d)", p, pp, page.MaxPerPage)
	}
}

func TestNew(t *testing.T) {
	pg := page.New([]int{1, 2, 3}, 7, 1, 3)
	if pg.Pages != 3 || pg.HasPrev || !pg.HasNext {
		t.Errorf("page 1 of 7/3 = %+v", pg)
	}

	pg = page.New([]int{7}, 7, 3, 3)
	if pg.Pages != 3 || !pg.HasPrev || pg.HasNext {
		t.Errorf("last page = %+v", pg)
	}

	pg = page.New([]int{}, 0, 1, 30)
	if pg.Pages != 1 || pg.HasPrev || pg.HasNext {
		t.Errorf("empty page = %+v", pg)
	}
}
