package pe

import (
	"fmt"
	"regexp"
	"sort"
)

// fillerTagPattern matches ".flrXXXX" with four uppercase hex digits,
// the tag format synthesized (and recognized) by FillVirtualLayoutGaps.
var fillerTagPattern = regexp.MustCompile(`^\.flr[0-9A-F]{4}\x00*$`)

func isFillerSection(s *Section) bool {
	return fillerTagPattern.MatchString(s.TagString()) && s.Characteristics&CharCntUninitializedData != 0
}

// FillVirtualLayoutGaps removes any existing filler sections and
// re-synthesizes them so that, after sorting by VirtualAddress, every
// section starts exactly where the previous one's alignment-rounded
// end leaves off (spec §4.2.6). Some loaders (Windows 10 among them)
// reject images with RVA gaps.
func (p *PE) FillVirtualLayoutGaps() error {
	sectionAlignment, err := p.sectionAlignment()
	if err != nil {
		return err
	}

	kept := make([]*Section, 0, len(p.Sections))
	for _, s := range p.Sections {
		if !isFillerSection(s) {
			kept = append(kept, s)
		}
	}
	p.Sections = kept

	sort.SliceStable(p.Sections, func(i, j int) bool {
		return p.Sections[i].VirtualAddress < p.Sections[j].VirtualAddress
	})

	// Gaps are only measured between consecutive sections: the span
	// before the first section is the header region, not a hole a
	// loader would choke on.
	var gaps []span
	if len(p.Sections) > 0 {
		last := alignUp(p.Sections[0].VirtualAddress+p.Sections[0].VirtualSize, sectionAlignment)
		for _, s := range p.Sections[1:] {
			if s.VirtualAddress != last {
				gaps = append(gaps, span{start: last, length: s.VirtualAddress - last})
			}
			last = alignUp(s.VirtualAddress+s.VirtualSize, sectionAlignment)
		}
	}

	// Malloc's own collision search is handed the exact gap size, so it
	// converges on the gap's start without being told it directly; see
	// place() in malloc.go.
	for i, g := range gaps {
		filler := &Section{
			Tag:             NewTag(fmt.Sprintf(".flr%04X", i)),
			VirtualSize:     g.length,
			RawData:         nil,
			Characteristics: CharCntUninitializedData | CharMemRead | CharMemWrite,
		}
		if err := p.Malloc(filler, false); err != nil {
			return fmt.Errorf("inserting filler section %d: %w", i, err)
		}
	}

	if len(gaps) > 0 {
		sort.SliceStable(p.Sections, func(i, j int) bool {
			return p.Sections[i].VirtualAddress < p.Sections[j].VirtualAddress
		})
	}

	p.trace("fill_gaps.ok", len(gaps))
	return nil
}
