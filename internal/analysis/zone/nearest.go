package zone

import "sort"

// 默认每侧返回的区间上限。
const (
	DefaultMaxResistance = 3
	DefaultMaxSupport    = 4
)

// Nearest 是面向下游（图表、消息）的最近区间结果。
type Nearest struct {
	Resistance []Zone `json:"resistance"`
	Support    []Zone `json:"support"`
}

// NearestZones 在一个（通常跨多个 timeframe 汇总的）区间池中，
// 按当前价分类并截取每侧最近的若干个。
// 分类规则：阻力侧取 Low 不低于当前价、或当前价严格落在区间内的
// resistance；支撑侧以 High 对称。阻力按 Low 升序（近沿在前），
// 支撑按 High 降序。maxRes/maxSup 非正时取默认值 3/4。
func NearestZones(zones []Zone, price float64, maxRes, maxSup int) Nearest {
	if maxRes <= 0 {
		maxRes = DefaultMaxResistance
	}
	if maxSup <= 0 {
		maxSup = DefaultMaxSupport
	}

	var res, sup []Zone
	for _, z := range zones {
		inside := z.Low < price && price < z.High
		switch z.Kind {
		case Resistance:
			if z.Low >= price || inside {
				res = append(res, z)
			}
		case Support:
			if z.High <= price || inside {
				sup = append(sup, z)
			}
		}
	}

	sort.SliceStable(res, func(i, j int) bool { return res[i].Low < res[j].Low })
	sort.SliceStable(sup, func(i, j int) bool { return sup[i].High > sup[j].High })

	if len(res) > maxRes {
		res = res[:maxRes]
	}
	if len(sup) > maxSup {
		sup = sup[:maxSup]
	}
	return Nearest{Resistance: res, Support: sup}
}
