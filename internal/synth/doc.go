// Package synth 合成车辆遥测通道
//
// 车速波形由工况决定，加速度、发动机转速、油耗和里程均由车速推导。
// 所有带噪声的环节都显式接收 rand.Source，调用方负责为每次生成创建独立的随机源，
// 相同种子得到逐位相同的结果。
package synth
