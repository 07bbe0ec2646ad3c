package generator

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidScenario 场景参数非法，生成前即拒绝
	ErrInvalidScenario = errors.New("invalid scenario")
	// ErrUnknownVehicleType 严格模式下车型未识别
	ErrUnknownVehicleType = fmt.Errorf("%w: unknown vehicle type", ErrInvalidScenario)
	// ErrUnknownProfileType 严格模式下工况未识别
	ErrUnknownProfileType = fmt.Errorf("%w: unknown profile type", ErrInvalidScenario)
	// ErrNumericFailure 计算结果出现 NaN 或 Inf
	ErrNumericFailure = errors.New("numeric failure")
	// ErrSinkFailure 结果持久化失败，内存中的结果不受影响
	ErrSinkFailure = errors.New("sink failure")
)
