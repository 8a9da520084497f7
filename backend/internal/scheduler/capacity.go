package scheduler

// RateSource 产能来源
type RateSource int

const (
	RateUnresolvable RateSource = iota
	RateFromProduct             // 周期时间 × 模穴数
	RateFromMachine             // 机台标称产能
)

func (s RateSource) String() string {
	switch s {
	case RateFromProduct:
		return "product"
	case RateFromMachine:
		return "machine"
	default:
		return "unresolvable"
	}
}

// Rate 订单/机台组合的生产速率，每个组合只解析一次
type Rate struct {
	Source          RateSource
	CycleTime       int // 秒，Source == RateFromProduct 时有效
	Cavities        int
	CapacityPerHour int // Source == RateFromMachine 时有效
}

// Minutes 生产 qty 件所需分钟数，向上取整
// 全部使用整数运算，保证同输入下结果逐位一致
func (r Rate) Minutes(qty int) int {
	if qty <= 0 {
		return 0
	}
	switch r.Source {
	case RateFromProduct:
		// qty / (cav*3600/cycle) 小时 = qty*cycle / (cav*60) 分钟
		num := int64(qty) * int64(r.CycleTime)
		den := int64(r.Cavities) * 60
		return int((num + den - 1) / den)
	case RateFromMachine:
		num := int64(qty) * 60
		den := int64(r.CapacityPerHour)
		return int((num + den - 1) / den)
	default:
		return 0
	}
}

// ResolveRate 按 产品周期时间 → 机台产能 的顺序解析速率
// product 为 nil 表示产品主数据缺失，只能退回机台产能
func ResolveRate(product *Product, machine Machine) Rate {
	if product != nil && product.CycleTime != nil && *product.CycleTime > 0 {
		cav := product.CavityCount
		if cav < 1 {
			cav = 1
		}
		return Rate{Source: RateFromProduct, CycleTime: *product.CycleTime, Cavities: cav}
	}
	if machine.CapacityPerHour > 0 {
		return Rate{Source: RateFromMachine, CapacityPerHour: machine.CapacityPerHour}
	}
	return Rate{Source: RateUnresolvable}
}

// TonnageCompatible 机台吨位 ≥ 产品要求吨位；产品未声明要求时恒为 true
func TonnageCompatible(product *Product, machine Machine) bool {
	if product == nil || product.RequiredTonnage == nil {
		return true
	}
	return machine.Tonnage >= *product.RequiredTonnage
}

// Eligible 判断组合是否可排，并返回解析出的速率
// 不可排时不报错，由调用方跳过该组合
func Eligible(product *Product, machine Machine) (Rate, bool) {
	if !TonnageCompatible(product, machine) {
		return Rate{}, false
	}
	rate := ResolveRate(product, machine)
	if rate.Source == RateUnresolvable {
		return rate, false
	}
	return rate, true
}
