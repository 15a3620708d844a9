package manifest

// parseTags reads a gameplay tag list. Items may be written "- tag: X",
// "- path: X" or "- X". Quotes are stripped and repeats dropped.
func parseTags(run *parseRun, start int) (int, error) {
	header := run.lines[start]
	seen := make(map[string]struct{}, len(run.model.Tags))
	for _, t := range run.model.Tags {
		seen[t] = struct{}{}
	}

	for i := start + 1; i < len(run.lines); i++ {
		l := run.lines[i]
		if l.Skippable() {
			continue
		}
		if l.Indent <= header.Indent && !l.IsItem() {
			return i, nil
		}
		if !l.IsItem() {
			continue
		}
		tag := Unquote(l.Body())
		if l.HasKey() {
			switch l.Field() {
			case "tag", "path", "name":
				tag = l.Value()
			default:
				run.log.Debug("Ignoring tag item", "line", l.Num, "text", l.Text)
				continue
			}
		}
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		run.model.Tags = append(run.model.Tags, tag)
	}
	return len(run.lines), nil
}
