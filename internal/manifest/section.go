package manifest

import (
	"strconv"
	"strings"
)

// recordSection parses one section of records of a single kind.
type recordSection struct {
	run     *parseRun
	grammar *Grammar

	headerIndent int
	itemIndent   int

	rec       *Record
	sub       SubState
	subKey    string
	subIndent int

	obj       *Object
	objIndent int
	objList   string

	groupList string
	graph     *graphBuilder
}

// parseRecords returns a section parser bound to a grammar.
func parseRecords(g *Grammar) sectionFunc {
	return func(run *parseRun, start int) (int, error) {
		p := &recordSection{
			run:          run,
			grammar:      g,
			headerIndent: run.lines[start].Indent,
			itemIndent:   -1,
		}
		return p.parse(start)
	}
}

func (p *recordSection) parse(start int) (int, error) {
	lines := p.run.lines
	for i := start + 1; i < len(lines); i++ {
		l := lines[i]
		if l.Skippable() {
			continue
		}
		if l.Indent <= p.headerIndent && !l.IsItem() {
			return i, p.finishRecord()
		}
		if l.IsItemKey("name") && (p.itemIndent < 0 || l.Indent <= p.itemIndent) {
			if err := p.finishRecord(); err != nil {
				return 0, err
			}
			p.startRecord(l)
			continue
		}
		if err := p.feed(l); err != nil {
			return 0, err
		}
	}
	return len(lines), p.finishRecord()
}

func (p *recordSection) startRecord(l Line) {
	if p.itemIndent < 0 {
		p.itemIndent = l.Indent
	}
	p.rec = NewRecord(p.grammar.Kind, l.Value(), l.Num)
}

// finishRecord is the single exit path for a record, whether it ends at the
// next item, at the end of the section or at the end of input.
func (p *recordSection) finishRecord() error {
	if p.rec == nil {
		return nil
	}
	if err := p.closeSub(); err != nil {
		return err
	}
	rec := p.rec
	p.rec = nil

	if !rec.Kind.HasValidName(rec.Name) {
		p.run.log.Debug("Dropped record with unexpected name prefix",
			"kind", rec.Kind, "name", rec.Name, "line", rec.Line, "prefixes", rec.Kind.Prefixes())
		return nil
	}
	if !p.run.model.Add(rec) {
		p.run.log.Warn("Duplicate record ignored, first declaration wins",
			"kind", rec.Kind, "name", rec.Name, "line", rec.Line)
	}
	return nil
}

func (p *recordSection) feed(l Line) error {
	if p.rec == nil {
		p.run.log.Debug("Ignoring line outside any item", "line", l.Num, "text", l.Text)
		return nil
	}
	if p.sub != None {
		if l.Indent > p.subIndent || (l.IsItem() && l.Indent == p.subIndent) {
			return p.feedSub(l)
		}
		if err := p.closeSub(); err != nil {
			return err
		}
	}
	return p.feedField(l)
}

func (p *recordSection) feedField(l Line) error {
	if l.IsItem() || !l.HasKey() {
		p.run.log.Debug("Ignoring unexpected line in record", "line", l.Num, "record", p.rec.Name, "text", l.Text)
		return nil
	}
	key := p.grammar.canonical(l.Key())
	value := l.Value()
	shape, known := p.grammar.shapeOf(key)

	if value != "" {
		if known && shape == ShapeList {
			list, err := InlineList(value)
			if err != nil {
				return parseErrorf(l, "%s: %v", key, err)
			}
			p.rec.Lists[key] = list
			return nil
		}
		p.rec.Scalars[key] = value
		return nil
	}
	if !known {
		shape = ShapeList
	}
	return p.openSub(l, key, shape)
}

func (p *recordSection) openSub(l Line, key string, shape Shape) error {
	to, ok := next(None, shape)
	if !ok {
		return parseErrorf(l, "%s block not allowed here", shape)
	}
	p.sub, p.subKey, p.subIndent = to, key, l.Indent
	switch to {
	case InGraph:
		p.graph = newGraphBuilder(p.run.log, p.rec.Name)
	case InGroup:
		if p.rec.Groups[key] == nil {
			p.rec.Groups[key] = map[string][]string{}
		}
	case InList:
		if p.rec.Lists[key] == nil {
			p.rec.Lists[key] = []string{}
		}
	}
	return nil
}

// closeSub flushes whatever nested entry is pending and returns to record
// level.
func (p *recordSection) closeSub() error {
	p.flushObject()
	if p.graph != nil {
		decl, err := p.graph.finish()
		p.graph = nil
		if err != nil {
			return err
		}
		p.rec.Graph = decl
	}
	p.sub, p.subKey, p.groupList = None, "", ""
	return nil
}

func (p *recordSection) feedSub(l Line) error {
	switch p.sub {
	case InList:
		if l.IsItem() {
			p.rec.Lists[p.subKey] = append(p.rec.Lists[p.subKey], Unquote(l.Body()))
			return nil
		}
	case InPairs:
		if l.IsItem() {
			return p.addPair(l)
		}
	case InObjects:
		return p.feedObject(l)
	case InGroup, InGroupList:
		return p.feedGroup(l)
	case InGraph:
		return p.graph.feed(l)
	}
	p.run.log.Debug("Ignoring line in sub-section", "line", l.Num, "section", p.subKey, "state", p.sub)
	return nil
}

func (p *recordSection) addPair(l Line) error {
	parts, err := InlineList(l.Body())
	if err != nil || len(parts) != 2 {
		return parseErrorf(l, "%s entries must be [time, value]", p.subKey)
	}
	for _, v := range parts {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return parseErrorf(l, "%s entry %q is not numeric", p.subKey, v)
		}
	}
	o := newObject(l.Num)
	o.Fields["time"], o.Fields["value"] = parts[0], parts[1]
	p.rec.Objects[p.subKey] = append(p.rec.Objects[p.subKey], *o)
	return nil
}

func (p *recordSection) feedObject(l Line) error {
	if l.IsItem() && (p.obj == nil || l.Indent <= p.objIndent) {
		p.flushObject()
		p.obj = newObject(l.Num)
		p.objIndent = l.Indent
		p.objList = ""
		if l.HasKey() {
			return p.setObjectField(l)
		}
		p.obj.Fields["value"] = Unquote(l.Body())
		return nil
	}
	if p.obj == nil {
		p.run.log.Debug("Ignoring line before first object", "line", l.Num, "section", p.subKey)
		return nil
	}
	if l.IsItem() {
		if p.objList != "" {
			p.obj.Lists[p.objList] = append(p.obj.Lists[p.objList], Unquote(l.Body()))
		}
		return nil
	}
	if l.HasKey() {
		return p.setObjectField(l)
	}
	return nil
}

func (p *recordSection) setObjectField(l Line) error {
	key := p.grammar.canonical(l.Key())
	value := l.Value()
	switch {
	case value == "":
		p.objList = key
	case p.grammar.ObjectLists[key]:
		p.objList = ""
		p.obj.Lists[key] = SplitReplies(value)
	case strings.HasPrefix(value, "["):
		p.objList = ""
		list, err := InlineList(value)
		if err != nil {
			return parseErrorf(l, "%s: %v", key, err)
		}
		p.obj.Lists[key] = list
	default:
		p.objList = ""
		p.obj.Fields[key] = value
	}
	return nil
}

func (p *recordSection) flushObject() {
	if p.obj == nil {
		return
	}
	p.rec.Objects[p.subKey] = append(p.rec.Objects[p.subKey], *p.obj)
	p.obj = nil
}

func (p *recordSection) feedGroup(l Line) error {
	group := p.rec.Groups[p.subKey]
	if l.IsItem() {
		if p.groupList == "" {
			p.run.log.Debug("Ignoring group item without a list", "line", l.Num, "group", p.subKey)
			return nil
		}
		group[p.groupList] = append(group[p.groupList], Unquote(l.Body()))
		return nil
	}
	if !l.HasKey() {
		return nil
	}
	key := strings.ToLower(l.Key())
	if v := l.Value(); v != "" {
		list, err := InlineList(v)
		if err != nil {
			return parseErrorf(l, "%s: %v", key, err)
		}
		group[key] = list
		p.sub, p.groupList = InGroup, ""
		return nil
	}
	to, ok := next(p.sub, ShapeList)
	if !ok {
		return parseErrorf(l, "list %s not allowed here", key)
	}
	p.sub, p.groupList = to, key
	if group[key] == nil {
		group[key] = []string{}
	}
	return nil
}
