package extract

import (
	"encoding/xml"
	"strings"
)

// wordDocument word/document.xml 的根元素
type wordDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    wordBody `xml:"body"`
}

// wordBody 按文档顺序保存段落和表格
type wordBody struct {
	Blocks []wordBlock
}

// wordBlock 段落或表格，二者只有一个非空
type wordBlock struct {
	Paragraph *wordParagraph
	Table     *wordTable
}

// UnmarshalXML 逐个读取 body 的子元素，保持顺序
func (b *wordBody) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				var p wordParagraph
				if err := d.DecodeElement(&p, &t); err != nil {
					return err
				}
				b.Blocks = append(b.Blocks, wordBlock{Paragraph: &p})
			case "tbl":
				var tbl wordTable
				if err := d.DecodeElement(&tbl, &t); err != nil {
					return err
				}
				b.Blocks = append(b.Blocks, wordBlock{Table: &tbl})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// paragraphProps 段落属性
type paragraphProps struct {
	Style *paragraphStyle `xml:"pStyle"`
	NumPr *struct{}       `xml:"numPr"`
}

// paragraphStyle 段落样式
type paragraphStyle struct {
	Val string `xml:"val,attr"`
}

// wordParagraph 段落。文本由所有 w:t 按顺序拼接，w:tab 和 w:br 转换为制表符和换行
type wordParagraph struct {
	Props *paragraphProps
	Text  string
}

// UnmarshalXML 遍历段落内任意深度的元素，超链接中的文本也会被收集
func (p *wordParagraph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var text strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				var props paragraphProps
				if err := d.DecodeElement(&props, &t); err != nil {
					return err
				}
				p.Props = &props
			case "t":
				var s string
				if err := d.DecodeElement(&s, &t); err != nil {
					return err
				}
				text.WriteString(s)
			case "tab":
				text.WriteString("\t")
				if err := d.Skip(); err != nil {
					return err
				}
			case "br", "cr":
				text.WriteString("\n")
				if err := d.Skip(); err != nil {
					return err
				}
			case "drawing", "pict", "instrText", "delText":
				if err := d.Skip(); err != nil {
					return err
				}
			default:
				depth++
			}
		case xml.EndElement:
			if depth == 0 {
				p.Text = text.String()
				return nil
			}
			depth--
		}
	}
}

// StyleID 返回段落样式 ID，没有时为空
func (p *wordParagraph) StyleID() string {
	if p.Props == nil || p.Props.Style == nil {
		return ""
	}
	return p.Props.Style.Val
}

// IsNumbered 段落是否属于编号列表
func (p *wordParagraph) IsNumbered() bool {
	return p.Props != nil && p.Props.NumPr != nil
}

// wordTable 表格
type wordTable struct {
	Rows []wordTableRow `xml:"tr"`
}

// wordTableRow 表格行
type wordTableRow struct {
	Cells []wordTableCell `xml:"tc"`
}

// wordTableCell 表格单元格
type wordTableCell struct {
	Paragraphs []wordParagraph `xml:"p"`
}

// Text 返回单元格中所有段落的文本，用空格连接
func (c wordTableCell) Text() string {
	parts := make([]string, 0, len(c.Paragraphs))
	for _, p := range c.Paragraphs {
		if s := strings.TrimSpace(p.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
