package profile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/char5742/gamepad-bridge/internal/event"
)

// TOMLファイル上のプロファイル表現
type profileFile struct {
	Name     string        `toml:"name"`
	Mappings []mappingFile `toml:"mapping"`
}

type mappingFile struct {
	Source  string   `toml:"source"`
	Outputs []string `toml:"outputs"`
}

// LoadFile はTOMLファイルからプロファイルを読み込む
func LoadFile(path string) (*Profile, error) {
	var pf profileFile
	if _, err := toml.DecodeFile(path, &pf); err != nil {
		return nil, fmt.Errorf("プロファイルの読み込みに失敗しました: %w", err)
	}
	if pf.Name == "" {
		return nil, fmt.Errorf("プロファイル名がありません: %s", path)
	}
	p := &Profile{Name: pf.Name}
	for i, m := range pf.Mappings {
		src, err := ParseEvent(m.Source)
		if err != nil {
			return nil, fmt.Errorf("対応付け%dの入力が不正です: %w", i+1, err)
		}
		if len(m.Outputs) == 0 {
			return nil, fmt.Errorf("対応付け%dに出力がありません", i+1)
		}
		outs := make([]event.Mappable, 0, len(m.Outputs))
		for _, name := range m.Outputs {
			o, err := ParseEvent(name)
			if err != nil {
				return nil, fmt.Errorf("対応付け%dの出力が不正です: %w", i+1, err)
			}
			outs = append(outs, o)
		}
		p.Mappings = append(p.Mappings, Mapping{Source: src, Outputs: outs})
	}
	return p, nil
}

// SaveFile はプロファイルをTOMLファイルへ保存する
func SaveFile(p *Profile, path string) error {
	pf := profileFile{Name: p.Name}
	for _, m := range p.Mappings {
		src, err := EventName(m.Source)
		if err != nil {
			return err
		}
		mf := mappingFile{Source: src}
		for _, o := range m.Outputs {
			name, err := EventName(o)
			if err != nil {
				return err
			}
			mf.Outputs = append(mf.Outputs, name)
		}
		pf.Mappings = append(pf.Mappings, mf)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("プロファイルディレクトリの作成に失敗しました: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("プロファイルファイルの作成に失敗しました: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(pf); err != nil {
		return fmt.Errorf("プロファイルのエンコードに失敗しました: %w", err)
	}
	return nil
}
