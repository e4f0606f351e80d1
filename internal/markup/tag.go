package markup

import "golang.org/x/net/html"

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// scanStartTag splits the raw text of a start tag into its name and
// attributes, keeping each attribute's source text. The tokenizer only
// reports lower-cased keys and unescaped values, which is not enough to
// write an untouched attribute back byte for byte.
func scanStartTag(raw string) (string, []attr) {
	i := 1 // '<'
	j := i
	for j < len(raw) && !isSpace(raw[j]) && raw[j] != '/' && raw[j] != '>' {
		j++
	}
	name := raw[i:j]
	i = j

	var attrs []attr
	for i < len(raw) {
		for i < len(raw) && (isSpace(raw[i]) || raw[i] == '/') {
			i++
		}
		if i >= len(raw) || raw[i] == '>' {
			break
		}

		ks := i
		i++ // a leading '=' belongs to the name
		for i < len(raw) && !isSpace(raw[i]) && raw[i] != '/' && raw[i] != '=' && raw[i] != '>' {
			i++
		}
		key := raw[ks:i]

		k := i
		for k < len(raw) && isSpace(raw[k]) {
			k++
		}
		val := ""
		if k < len(raw) && raw[k] == '=' {
			k++
			for k < len(raw) && isSpace(raw[k]) {
				k++
			}
			switch {
			case k < len(raw) && (raw[k] == '"' || raw[k] == '\''):
				q := raw[k]
				vs := k + 1
				ve := vs
				for ve < len(raw) && raw[ve] != q {
					ve++
				}
				val = raw[vs:ve]
				i = ve + 1
				if i > len(raw) {
					i = len(raw)
				}
			default:
				vs := k
				for k < len(raw) && !isSpace(raw[k]) && raw[k] != '>' {
					k++
				}
				val = raw[vs:k]
				i = k
			}
		}

		attrs = append(attrs, attr{key: key, val: html.UnescapeString(val), raw: raw[ks:i]})
	}
	return name, attrs
}
